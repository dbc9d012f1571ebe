// Package effect implements the segment collection and compositor
// described by spec component C4: each Effect owns N segments, a
// current palette name, and a tick clock, and composites its segments
// into a single LED buffer every tick.
package effect

import (
	"fmt"
	"sort"

	"github.com/tapelight/tapelight-go/internal/segment"
	"github.com/tapelight/tapelight-go/pkg/color"
	"github.com/tapelight/tapelight-go/pkg/palette"
)

// Effect owns a set of segments sharing an led_count and fps, and
// composites them into a buffer every render tick.
type Effect struct {
	ID                  int
	LEDCount            int
	FPS                 int
	Time                float64
	CurrentPaletteName  string

	Segments map[int]*segment.Segment
	palette  *palette.Table
}

// New creates an empty Effect bound to a palette table (shared with the
// owning Scene; Effects never own their own table).
func New(id, ledCount, fps int, pal *palette.Table) *Effect {
	return &Effect{
		ID:                 id,
		LEDCount:           ledCount,
		FPS:                fps,
		CurrentPaletteName: "A",
		Segments:           make(map[int]*segment.Segment),
		palette:            pal,
	}
}

// AddSegment inserts a segment, keyed by its own id.
func (e *Effect) AddSegment(s *segment.Segment) {
	e.Segments[s.ID] = s
}

// RemoveSegment removes a segment by id. Per spec.md §3 Lifecycles, an
// Effect must always retain at least one segment — the caller (control
// dispatcher) is responsible for refusing the last remove.
func (e *Effect) RemoveSegment(id int) {
	delete(e.Segments, id)
}

// SetPalette changes which palette this effect's segments render from.
func (e *Effect) SetPalette(name string) {
	e.CurrentPaletteName = name
}

// UpdateAll advances time by 1/fps and integrates every segment's
// motion, per spec.md §4.3. Segment iteration order is immaterial here
// (no cross-segment state).
func (e *Effect) UpdateAll() {
	if e.FPS <= 0 {
		return
	}
	dt := 1.0 / float64(e.FPS)
	e.Time += dt
	for _, s := range e.Segments {
		s.UpdatePosition(dt)
	}
}

// sortedSegmentIDs returns segment ids in ascending order, the
// deterministic z-order spec.md §4.3 requires: larger ids render on top.
func (e *Effect) sortedSegmentIDs() []int {
	ids := make([]int, 0, len(e.Segments))
	for id := range e.Segments {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Render composites all segments into a buffer of length LEDCount,
// ascending by segment id so later ids paint over earlier ones (§4.3).
func (e *Effect) Render() []color.RGB {
	buf := make([]color.RGB, e.LEDCount)
	alpha := make([]float64, e.LEDCount)

	for _, id := range e.sortedSegmentIDs() {
		s := e.Segments[id]
		samples := s.Sample(e.palette, e.CurrentPaletteName)
		for i, sample := range samples {
			if i < 0 || i >= e.LEDCount {
				continue
			}
			buf[i], alpha[i] = color.Over(buf[i], alpha[i], sample.RGB, sample.Alpha)
		}
	}

	return buf
}

// Validate checks the invariants from spec.md §3 that this Effect alone
// is responsible for.
func (e *Effect) Validate() error {
	if len(e.Segments) == 0 {
		return fmt.Errorf("effect %d: must retain at least one segment", e.ID)
	}
	return nil
}
