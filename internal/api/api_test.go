package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tapelight/tapelight-go/internal/effect"
	"github.com/tapelight/tapelight-go/internal/manager"
	"github.com/tapelight/tapelight-go/internal/pubsub"
	"github.com/tapelight/tapelight-go/internal/scene"
	"github.com/tapelight/tapelight-go/internal/segment"
	"github.com/tapelight/tapelight-go/internal/wsstream"
)

func TestHealthHandler(t *testing.T) {
	m := manager.New(nil, nil)
	sc := scene.New(1)
	e := effect.New(1, 10, 60, sc.Palettes)
	e.AddSegment(segment.NewDefault(1))
	sc.AddEffect(e)
	m.AddScene(sc)

	hub := wsstream.NewHub(pubsub.New())
	router := NewRouter(m, hub, "http://localhost:3000")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestStatusHandler(t *testing.T) {
	m := manager.New(nil, nil)
	sc := scene.New(1)
	e := effect.New(1, 10, 60, sc.Palettes)
	e.AddSegment(segment.NewDefault(1))
	sc.AddEffect(e)
	m.AddScene(sc)

	hub := wsstream.NewHub(pubsub.New())
	router := NewRouter(m, hub, "http://localhost:3000")

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
