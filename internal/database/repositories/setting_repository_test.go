package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapelight/tapelight-go/internal/database/testutil"
)

func TestSettingRepository_UpsertAndFind(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	key := testutil.UniqueKey("output.broadcast_addr")

	setting, err := db.SettingRepo.Upsert(ctx, key, "255.255.255.255")
	require.NoError(t, err)
	assert.NotEmpty(t, setting.ID)
	assert.Equal(t, key, setting.Key)
	assert.Equal(t, "255.255.255.255", setting.Value)

	found, err := db.SettingRepo.FindByKey(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "255.255.255.255", found.Value)

	updated, err := db.SettingRepo.Upsert(ctx, key, "192.168.1.255")
	require.NoError(t, err)
	assert.Equal(t, setting.ID, updated.ID)
	assert.Equal(t, "192.168.1.255", updated.Value)
}

func TestSettingRepository_FindByKey_NotFound(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	found, err := db.SettingRepo.FindByKey(context.Background(), "does.not.exist")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSettingRepository_Delete(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	key := testutil.UniqueKey("manager.fade_in_sec")

	_, err := db.SettingRepo.Upsert(ctx, key, "1.0")
	require.NoError(t, err)

	require.NoError(t, db.SettingRepo.Delete(ctx, key))

	found, err := db.SettingRepo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSettingRepository_FindAll(t *testing.T) {
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	_, err := db.SettingRepo.Upsert(ctx, testutil.UniqueKey("a"), "1")
	require.NoError(t, err)
	_, err = db.SettingRepo.Upsert(ctx, testutil.UniqueKey("b"), "2")
	require.NoError(t, err)

	all, err := db.SettingRepo.FindAll(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(all), 2)
}
