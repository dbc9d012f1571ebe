// Package scene implements the effect collection and effect/palette
// cross-fade transition state machine described by spec component C5.
package scene

import (
	"fmt"

	"github.com/tapelight/tapelight-go/internal/effect"
	"github.com/tapelight/tapelight-go/pkg/color"
	"github.com/tapelight/tapelight-go/pkg/palette"
)

// TransitionState is the scene-level cross-fade state.
type TransitionState int

const (
	Idle TransitionState = iota
	Fading
)

// Transition holds the pending effect/palette swap and its timing, per
// spec.md §4.5. It does not itself modulate output brightness — that is
// the Manager-level controller's job (§4.6).
type Transition struct {
	State TransitionState

	NextEffectID   *int
	NextPaletteName *string
	FadeIn         float64
	FadeOut        float64
	Elapsed        float64
	EffectActive   bool
	PaletteActive  bool
}

// Scene owns a set of effects, a local palette table, the current
// effect, and its own transition controller.
type Scene struct {
	ID                 int
	Effects            map[int]*effect.Effect
	CurrentEffectID    *int
	Palettes           *palette.Table
	CurrentPaletteName string

	Transition Transition
}

// New creates an empty Scene with a fresh default palette table.
func New(id int) *Scene {
	return &Scene{
		ID:                 id,
		Effects:            make(map[int]*effect.Effect),
		Palettes:           palette.NewTable(),
		CurrentPaletteName: "A",
	}
}

// AddEffect inserts an effect and, if no effect is currently active,
// makes it current.
func (s *Scene) AddEffect(e *effect.Effect) {
	s.Effects[e.ID] = e
	if s.CurrentEffectID == nil {
		id := e.ID
		s.CurrentEffectID = &id
	}
}

// RemoveEffect removes an effect by id. Per spec.md §3 Lifecycles, a
// Scene must always retain at least one effect.
func (s *Scene) RemoveEffect(id int) error {
	if len(s.Effects) <= 1 {
		return fmt.Errorf("scene %d: cannot remove last effect", s.ID)
	}
	if _, ok := s.Effects[id]; !ok {
		return fmt.Errorf("scene %d: effect %d not found", s.ID, id)
	}
	delete(s.Effects, id)
	if s.CurrentEffectID != nil && *s.CurrentEffectID == id {
		for remainingID := range s.Effects {
			s.CurrentEffectID = &remainingID
			break
		}
	}
	return nil
}

// CurrentEffect returns the active effect, or nil if none is set.
func (s *Scene) CurrentEffect() *effect.Effect {
	if s.CurrentEffectID == nil {
		return nil
	}
	return s.Effects[*s.CurrentEffectID]
}

// SetPalette propagates a palette name change to the scene and every
// owned effect (§4.4).
func (s *Scene) SetPalette(name string) {
	s.CurrentPaletteName = name
	for _, e := range s.Effects {
		e.SetPalette(name)
	}
}

// BeginTransition starts a fade-out/swap/fade-in cycle to a new effect
// and/or palette, per spec.md §4.5.
func (s *Scene) BeginTransition(nextEffectID *int, nextPaletteName *string, fadeIn, fadeOut float64) {
	s.Transition = Transition{
		State:           Fading,
		NextEffectID:    nextEffectID,
		NextPaletteName: nextPaletteName,
		FadeIn:          fadeIn,
		FadeOut:         fadeOut,
		Elapsed:         0,
		EffectActive:    nextEffectID != nil,
		PaletteActive:   nextPaletteName != nil,
	}
}

// Update advances the transition controller by dt seconds (the active
// effect's 1/fps), performing the atomic swap when the fade completes.
func (s *Scene) Update(dt float64) {
	if s.Transition.State != Fading {
		return
	}

	s.Transition.Elapsed += dt
	if s.Transition.Elapsed < s.Transition.FadeIn+s.Transition.FadeOut {
		return
	}

	if s.Transition.EffectActive && s.Transition.NextEffectID != nil {
		if _, ok := s.Effects[*s.Transition.NextEffectID]; ok {
			id := *s.Transition.NextEffectID
			s.CurrentEffectID = &id
		}
	}
	if s.Transition.PaletteActive && s.Transition.NextPaletteName != nil {
		s.SetPalette(*s.Transition.NextPaletteName)
	}

	s.Transition = Transition{State: Idle}
}

// Render composites the currently active effect's buffer. While a
// transition is Fading, rendering still proceeds from the current
// (pre-swap) effect/palette, per spec.md §4.5.
func (s *Scene) Render() []color.RGB {
	e := s.CurrentEffect()
	if e == nil {
		return nil
	}
	return e.Render()
}

// Validate checks the invariants this Scene alone is responsible for.
func (s *Scene) Validate() error {
	if len(s.Effects) == 0 {
		return fmt.Errorf("scene %d: must retain at least one effect", s.ID)
	}
	if s.CurrentEffectID != nil {
		if _, ok := s.Effects[*s.CurrentEffectID]; !ok {
			return fmt.Errorf("scene %d: current_effect_id does not resolve", s.ID)
		}
	}
	return nil
}
