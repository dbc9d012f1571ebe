// Package segment implements the moving, gradient-colored, dimmable
// light band described by spec component C3. A Segment is owned by
// exactly one Effect and mutated only from the control actor; the
// render actor only calls UpdatePosition and Sample.
package segment

import (
	"fmt"
	"math"

	"github.com/tapelight/tapelight-go/pkg/color"
	"github.com/tapelight/tapelight-go/pkg/palette"
)

// Sample is a single LED's contribution from one segment: a color already
// multiplied by the dimming envelope, and the stop/gradient alpha at that
// LED.
type Sample struct {
	RGB   color.RGB
	Alpha float64
}

// Segment holds the full parameter set from spec.md §3, with gradient,
// fade, gradient_colors and dimmer_time_ratio modeled as first-class
// fields rather than runtime-added attributes.
type Segment struct {
	ID int

	ColorIndices  [4]int
	Transparency  [4]float64
	Length        [3]int
	MoveSpeed     float64
	MoveRange     [2]float64
	InitialPos    float64
	CurrentPos    float64
	IsEdgeReflect bool

	DimmerTime      [5]int
	DimmerTimeRatio float64
	Fade            bool

	Gradient       bool
	GradientColors [3]int // [enabled_flag, left_idx, right_idx]

	Time float64
}

// NewDefault builds a Segment with the documented defaults (§9): gradient
// off, fade off, gradient_colors (0,-1,-1), dimmer_time_ratio 1.0.
func NewDefault(id int) *Segment {
	return &Segment{
		ID:              id,
		ColorIndices:    [4]int{0, 1, 2, 3},
		Transparency:    [4]float64{1, 1, 1, 1},
		Length:          [3]int{10, 10, 10},
		MoveSpeed:       10.0,
		MoveRange:       [2]float64{0, 224},
		InitialPos:      0,
		CurrentPos:      0,
		IsEdgeReflect:   true,
		DimmerTime:      [5]int{0, 100, 200, 100, 0},
		DimmerTimeRatio: 1.0,
		GradientColors:  [3]int{0, -1, -1},
	}
}

// TotalLength is the sum of the three gradient sub-band widths.
func (s *Segment) TotalLength() int {
	return s.Length[0] + s.Length[1] + s.Length[2]
}

// normalizeMoveRange re-orders [lo,hi] and clamps CurrentPos into range.
func (s *Segment) normalizeMoveRange() {
	if s.MoveRange[0] > s.MoveRange[1] {
		s.MoveRange[0], s.MoveRange[1] = s.MoveRange[1], s.MoveRange[0]
	}
	if s.CurrentPos < s.MoveRange[0] {
		s.CurrentPos = s.MoveRange[0]
	} else if s.CurrentPos > s.MoveRange[1] {
		s.CurrentPos = s.MoveRange[1]
	}
}

// UpdateParam is the typed setter behind the control dispatcher's
// per-segment parameter mutations (§4.2, §4.7's param table). The
// dispatcher is responsible for the encoding-specific coercions (e.g.
// turning a single int into an index-0 color replacement); UpdateParam
// receives already-normalized Go values.
func (s *Segment) UpdateParam(name string, value any) error {
	switch name {
	case "color", "color_indices":
		v, ok := value.([4]int)
		if !ok {
			return fmt.Errorf("segment %d: color requires [4]int, got %T", s.ID, value)
		}
		s.ColorIndices = v
	case "transparency":
		v, ok := value.([4]float64)
		if !ok {
			return fmt.Errorf("segment %d: transparency requires [4]float64, got %T", s.ID, value)
		}
		for i := range v {
			v[i] = clamp01(v[i])
		}
		s.Transparency = v
	case "length":
		v, ok := value.([3]int)
		if !ok {
			return fmt.Errorf("segment %d: length requires [3]int, got %T", s.ID, value)
		}
		s.Length = v
	case "move_speed":
		v, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("segment %d: move_speed requires a number, got %T", s.ID, value)
		}
		s.MoveSpeed = v
	case "move_range":
		v, ok := value.([2]float64)
		if !ok {
			return fmt.Errorf("segment %d: move_range requires [2]float64, got %T", s.ID, value)
		}
		s.MoveRange = v
		s.normalizeMoveRange()
	case "is_edge_reflect":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("segment %d: is_edge_reflect requires bool, got %T", s.ID, value)
		}
		s.IsEdgeReflect = v
	case "dimmer_time":
		v, ok := value.([5]int)
		if !ok {
			return fmt.Errorf("segment %d: dimmer_time requires [5]int, got %T", s.ID, value)
		}
		s.DimmerTime = v
	case "dimmer_time_ratio":
		v, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("segment %d: dimmer_time_ratio requires a number, got %T", s.ID, value)
		}
		if v < 0.1 {
			v = 0.1
		}
		s.DimmerTimeRatio = v
	case "fade":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("segment %d: fade requires bool, got %T", s.ID, value)
		}
		s.Fade = v
	case "gradient":
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("segment %d: gradient requires bool, got %T", s.ID, value)
		}
		s.Gradient = v
		if s.Gradient && s.GradientColors[0] == 0 {
			s.GradientColors[0] = 1
		}
	case "gradient_colors":
		v, ok := value.([3]int)
		if !ok {
			return fmt.Errorf("segment %d: gradient_colors requires [3]int, got %T", s.ID, value)
		}
		s.GradientColors = v
		if s.GradientColors[0] == 1 {
			s.Gradient = true
		}
	case "initial_position":
		v, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("segment %d: initial_position requires a number, got %T", s.ID, value)
		}
		s.InitialPos = v
	default:
		return fmt.Errorf("segment %d: unknown param %q", s.ID, name)
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// UpdatePosition integrates motion over dt seconds and advances Time,
// per spec.md §4.2's Motion integration rules. One reflection per tick;
// no rebound-within-tick.
func (s *Segment) UpdatePosition(dt float64) {
	s.Time += dt

	newPos := s.CurrentPos + s.MoveSpeed*dt
	lo, hi := s.MoveRange[0], s.MoveRange[1]
	total := float64(s.TotalLength())

	if s.IsEdgeReflect {
		if newPos < lo {
			newPos = lo
			s.MoveSpeed = math.Abs(s.MoveSpeed)
		} else if newPos+total-1 > hi {
			newPos = hi - total + 1
			s.MoveSpeed = -math.Abs(s.MoveSpeed)
		}
	} else {
		if newPos < lo {
			newPos = hi - (lo - newPos) + 1
		} else if newPos+total-1 > hi {
			newPos = lo + (newPos + total - 1 - hi) - 1
		}
		// Safety clamp net.
		if newPos < lo {
			newPos = lo
		} else if newPos > hi {
			newPos = hi
		}
	}

	s.CurrentPos = newPos
}

// dimmingEnvelope returns the trapezoidal brightness multiplier at the
// segment's current Time, per spec.md §4.2.
func (s *Segment) dimmingEnvelope() float64 {
	if !s.Fade {
		return 1.0
	}
	ratio := s.DimmerTimeRatio
	if ratio <= 0 {
		ratio = 1.0
	}

	t0 := int(math.Round(float64(s.DimmerTime[0]) * ratio))
	t1 := int(math.Round(float64(s.DimmerTime[1]) * ratio))
	t2 := int(math.Round(float64(s.DimmerTime[2]) * ratio))
	t3 := int(math.Round(float64(s.DimmerTime[3]) * ratio))
	cycle := int(math.Round(float64(s.DimmerTime[4]) * ratio))

	if cycle <= 0 {
		return 1.0
	}

	tau := int(math.Mod(s.Time*1000, float64(cycle)))

	switch {
	case tau < t0:
		return 0
	case tau < t1:
		denom := t1 - t0
		if denom < 1 {
			denom = 1
		}
		return float64(tau-t0) / float64(denom)
	case tau < t2:
		return 1.0
	case tau < t3:
		denom := t3 - t2
		if denom < 1 {
			denom = 1
		}
		return 1.0 - float64(tau-t2)/float64(denom)
	default:
		return 0
	}
}

// gradientStops resolves the 4 RGB stops and their alphas, either from
// palette-indirected color_indices or, when gradient mode is active, from
// two endpoint colors with the inner stops interpolated at 1/3 and 2/3.
func (s *Segment) gradientStops(pal *palette.Table, paletteName string) ([4]color.RGB, [4]float64) {
	var stops [4]color.RGB

	if s.Gradient && s.GradientColors[0] == 1 && s.GradientColors[1] >= 0 && s.GradientColors[2] >= 0 {
		left := pal.Lookup(paletteName, s.GradientColors[1])
		right := pal.Lookup(paletteName, s.GradientColors[2])
		stops = [4]color.RGB{
			left,
			color.Interpolate(left, right, 1.0/3),
			color.Interpolate(left, right, 2.0/3),
			right,
		}
	} else {
		for i, idx := range s.ColorIndices {
			stops[i] = pal.Lookup(paletteName, idx)
		}
	}

	return stops, s.Transparency
}

// Sample returns this segment's contribution to every LED it currently
// overlaps, with the dimming envelope already applied to the color.
func (s *Segment) Sample(pal *palette.Table, paletteName string) map[int]Sample {
	l0, l1, l2 := float64(s.Length[0]), float64(s.Length[1]), float64(s.Length[2])
	lt := l0 + l1 + l2
	if lt <= 0 {
		return nil
	}

	stops, alphas := s.gradientStops(pal, paletteName)
	envelope := s.dimmingEnvelope()

	out := make(map[int]Sample, int(lt)+1)

	start := int(math.Floor(s.CurrentPos))
	end := int(math.Floor(s.CurrentPos + lt))
	for i := start; i < end; i++ {
		r := float64(i) - s.CurrentPos
		if r < 0 {
			r = 0
		}
		if r >= lt {
			r = lt - 1e-9
		}

		var t float64
		var a, b color.RGB
		var alphaA, alphaB float64

		switch {
		case r < l0:
			if l0 > 0 {
				t = r / l0
			}
			a, b = stops[0], stops[1]
			alphaA, alphaB = alphas[0], alphas[1]
		case r < l0+l1:
			if l1 > 0 {
				t = (r - l0) / l1
			}
			a, b = stops[1], stops[2]
			alphaA, alphaB = alphas[1], alphas[2]
		default:
			if l2 > 0 {
				t = (r - l0 - l1) / l2
			}
			a, b = stops[2], stops[3]
			alphaA, alphaB = alphas[2], alphas[3]
		}

		rgb := color.Interpolate(a, b, t)
		alpha := alphaA + (alphaB-alphaA)*t

		if envelope < 1.0 {
			rgb = color.Brightness(rgb, envelope)
		}

		out[i] = Sample{RGB: rgb, Alpha: alpha}
	}

	return out
}
