// Package palette holds named tables of indexed RGB triples used by
// segments for color indirection (spec C2).
package palette

import (
	"sort"
	"sync"

	"github.com/tapelight/tapelight-go/pkg/color"
)

// Table is a named set of palettes, each an ordered list of colors
// addressable by a small integer index.
type Table struct {
	mu       sync.RWMutex
	palettes map[string][]color.RGB
}

// DefaultPalettes mirrors the five built-in six-color palettes (A..E) the
// original engine ships with.
func DefaultPalettes() map[string][]color.RGB {
	return map[string][]color.RGB{
		"A": {
			{R: 255, G: 0, B: 0},
			{R: 0, G: 255, B: 0},
			{R: 0, G: 0, B: 255},
			{R: 255, G: 255, B: 0},
			{R: 0, G: 255, B: 255},
			{R: 255, G: 0, B: 255},
		},
		"B": {
			{R: 255, G: 128, B: 0},
			{R: 128, G: 0, B: 255},
			{R: 0, G: 128, B: 255},
			{R: 255, G: 0, B: 128},
			{R: 128, G: 255, B: 0},
			{R: 255, G: 255, B: 255},
		},
		"C": {
			{R: 128, G: 0, B: 0},
			{R: 0, G: 128, B: 0},
			{R: 0, G: 0, B: 128},
			{R: 128, G: 128, B: 0},
			{R: 0, G: 128, B: 128},
			{R: 128, G: 0, B: 128},
		},
		"D": {
			{R: 255, G: 200, B: 200},
			{R: 200, G: 255, B: 200},
			{R: 200, G: 200, B: 255},
			{R: 255, G: 255, B: 200},
			{R: 200, G: 255, B: 255},
			{R: 255, G: 200, B: 255},
		},
		"E": {
			{R: 100, G: 100, B: 100},
			{R: 150, G: 150, B: 150},
			{R: 200, G: 200, B: 200},
			{R: 255, G: 100, B: 50},
			{R: 50, G: 100, B: 255},
			{R: 150, G: 255, B: 150},
		},
	}
}

// NewTable builds a Table seeded with the default palettes.
func NewTable() *Table {
	return &Table{palettes: DefaultPalettes()}
}

// NewTableFrom builds a Table from an existing set, e.g. one loaded from
// JSON or copied from another Scene.
func NewTableFrom(palettes map[string][]color.RGB) *Table {
	copied := make(map[string][]color.RGB, len(palettes))
	for name, colors := range palettes {
		dup := make([]color.RGB, len(colors))
		copy(dup, colors)
		copied[name] = dup
	}
	return &Table{palettes: copied}
}

// Snapshot returns a deep copy of the whole table, safe to hand to a
// render tick without holding the Table's lock.
func (t *Table) Snapshot() map[string][]color.RGB {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string][]color.RGB, len(t.palettes))
	for name, colors := range t.palettes {
		dup := make([]color.RGB, len(colors))
		copy(dup, colors)
		out[name] = dup
	}
	return out
}

// Lookup returns the RGB at index idx in the named palette. An unknown
// name falls back to palette "A"; an index out of range returns
// color.ErrorColor per spec.md's palette-index-out-of-range policy.
func (t *Table) Lookup(name string, idx int) color.RGB {
	t.mu.RLock()
	defer t.mu.RUnlock()

	colors, ok := t.palettes[name]
	if !ok {
		colors = t.palettes["A"]
	}
	if idx < 0 || idx >= len(colors) {
		return color.ErrorColor
	}
	return colors[idx]
}

// Colors returns a copy of the named palette's color list, or nil if the
// name is unknown.
func (t *Table) Colors(name string) []color.RGB {
	t.mu.RLock()
	defer t.mu.RUnlock()
	colors, ok := t.palettes[name]
	if !ok {
		return nil
	}
	dup := make([]color.RGB, len(colors))
	copy(dup, colors)
	return dup
}

// SetColors replaces the color list for a palette name, creating it if
// it doesn't already exist.
func (t *Table) SetColors(name string, colors []color.RGB) {
	t.mu.Lock()
	defer t.mu.Unlock()
	dup := make([]color.RGB, len(colors))
	copy(dup, colors)
	t.palettes[name] = dup
}

// Names returns the sorted set of palette names currently in the table.
func (t *Table) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.palettes))
	for name := range t.palettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
