// Package models contains the database model definitions.
// These models map directly to the SQLite settings table.
package models

import (
	"time"
)

// Setting represents a durable key/value configuration entry, used to
// persist operator-level state (currently only the last output target,
// key output.broadcast_addr) across restarts.
// Table: settings
type Setting struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Key       string    `gorm:"column:key;uniqueIndex"`
	Value     string    `gorm:"column:value"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Setting) TableName() string { return "settings" }
