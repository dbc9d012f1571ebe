// Package manager implements the top-level scene selector and scene
// cross-fade transition state machine described by spec component C6. It
// drives the per-tick render loop and hands composited frames to the
// binary frame emitter.
package manager

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/tapelight/tapelight-go/internal/pubsub"
	"github.com/tapelight/tapelight-go/internal/scene"
	"github.com/tapelight/tapelight-go/pkg/color"
)

// gapHold is the fixed gap-hold window between fade-out completing and
// fade-in starting, during which the atomic scene/effect/palette swap
// happens (§4.6 step 2).
const gapHold = 0.1

// fallbackDelta is used when the active scene has no effect with a usable
// fps (§4.6).
const fallbackDelta = 0.03

// Emitter is the binary frame sink (C8); the Manager never blocks the
// render actor waiting on it — Send itself is responsible for rate
// limiting and non-blocking I/O.
type Emitter interface {
	Send(frame []color.RGB)
}

// Transition is the Manager-level scene cross-fade controller (§4.6).
type Transition struct {
	Active bool

	NextSceneID     *int
	NextEffectID    *int
	NextPaletteName *string
	FadeIn          float64
	FadeOut         float64
	Elapsed         float64

	TransitionOpacity float64

	swapped bool // whether the gap-hold swap already fired this transition
}

// Manager owns every scene, the current scene selection, and the
// scene-level cross-fade controller.
type Manager struct {
	mu sync.RWMutex

	Scenes        map[int]*scene.Scene
	CurrentSceneID *int
	Transition    Transition

	pubsub  *pubsub.PubSub
	emitter Emitter
}

// New creates an empty Manager.
func New(ps *pubsub.PubSub, emitter Emitter) *Manager {
	return &Manager{
		Scenes:            make(map[int]*scene.Scene),
		pubsub:            ps,
		emitter:           emitter,
		Transition:        Transition{TransitionOpacity: 1},
	}
}

// AddScene inserts a scene and, if none is current, makes it current.
func (m *Manager) AddScene(s *scene.Scene) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Scenes[s.ID] = s
	if m.CurrentSceneID == nil {
		id := s.ID
		m.CurrentSceneID = &id
	}
}

// RemoveScene removes a scene by id. Per spec.md §3 Lifecycles, the
// Manager must always retain at least one scene.
func (m *Manager) RemoveScene(id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Scenes) <= 1 {
		return fmt.Errorf("manager: cannot remove last scene")
	}
	if _, ok := m.Scenes[id]; !ok {
		return fmt.Errorf("manager: scene %d not found", id)
	}
	delete(m.Scenes, id)
	if m.CurrentSceneID != nil && *m.CurrentSceneID == id {
		for remainingID := range m.Scenes {
			m.CurrentSceneID = &remainingID
			break
		}
	}
	return nil
}

// CurrentScene returns the active scene, or nil if none is set.
func (m *Manager) CurrentScene() *scene.Scene {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CurrentSceneID == nil {
		return nil
	}
	return m.Scenes[*m.CurrentSceneID]
}

// SwitchScene begins a Manager-level cross-fade to a different scene
// (optionally also selecting a next effect/palette on arrival), per
// spec.md §4.6.
func (m *Manager) SwitchScene(nextSceneID *int, nextEffectID *int, nextPaletteName *string, fadeIn, fadeOut float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transition = Transition{
		Active:          true,
		NextSceneID:     nextSceneID,
		NextEffectID:    nextEffectID,
		NextPaletteName: nextPaletteName,
		FadeIn:          fadeIn,
		FadeOut:         fadeOut,
		Elapsed:         0,
	}

	if m.pubsub != nil {
		filter := ""
		if nextSceneID != nil {
			filter = strconv.Itoa(*nextSceneID)
		} else if m.CurrentSceneID != nil {
			filter = strconv.Itoa(*m.CurrentSceneID)
		}
		payload := map[string]interface{}{"phase": "started", "next_scene_id": nextSceneID}
		if filter != "" {
			m.pubsub.Publish(pubsub.TopicManagerTransition, filter, payload)
		} else {
			m.pubsub.PublishAll(pubsub.TopicManagerTransition, payload)
		}
	}
}

// activeDelta picks 1/fps of the current scene's active effect, or the
// documented fallback if unavailable.
func (m *Manager) activeDelta() float64 {
	sc := m.currentSceneLocked()
	if sc == nil {
		return fallbackDelta
	}
	e := sc.CurrentEffect()
	if e == nil || e.FPS <= 0 {
		return fallbackDelta
	}
	return 1.0 / float64(e.FPS)
}

func (m *Manager) currentSceneLocked() *scene.Scene {
	if m.CurrentSceneID == nil {
		return nil
	}
	return m.Scenes[*m.CurrentSceneID]
}

// updateTransition advances the Manager-level transition controller by
// dt per the piecewise schedule in §4.6.
func (m *Manager) updateTransition(dt float64) {
	tr := &m.Transition
	if !tr.Active {
		tr.TransitionOpacity = 1
		return
	}

	tr.Elapsed += dt

	switch {
	case tr.Elapsed < tr.FadeOut:
		if tr.FadeOut <= 0 {
			tr.TransitionOpacity = 0
		} else {
			tr.TransitionOpacity = 1 - tr.Elapsed/tr.FadeOut
		}
	case tr.Elapsed < tr.FadeOut+gapHold:
		tr.TransitionOpacity = 0
		if !tr.swapped {
			m.performSwap()
			tr.swapped = true
		}
	case tr.Elapsed < tr.FadeOut+gapHold+tr.FadeIn:
		if tr.FadeIn <= 0 {
			tr.TransitionOpacity = 1
		} else {
			tr.TransitionOpacity = (tr.Elapsed - tr.FadeOut - gapHold) / tr.FadeIn
		}
	default:
		tr.TransitionOpacity = 1
		tr.Active = false
		tr.NextSceneID = nil
		tr.NextEffectID = nil
		tr.NextPaletteName = nil
		tr.swapped = false
		if m.pubsub != nil {
			payload := map[string]interface{}{"phase": "complete"}
			if m.CurrentSceneID != nil {
				m.pubsub.Publish(pubsub.TopicManagerTransition, strconv.Itoa(*m.CurrentSceneID), payload)
			} else {
				m.pubsub.PublishAll(pubsub.TopicManagerTransition, payload)
			}
		}
	}
}

// performSwap atomically applies the pending scene/effect/palette change
// at the gap-hold boundary (§4.6 step 2).
func (m *Manager) performSwap() {
	if m.Transition.NextSceneID != nil {
		if _, ok := m.Scenes[*m.Transition.NextSceneID]; ok {
			id := *m.Transition.NextSceneID
			m.CurrentSceneID = &id
		}
	}

	sc := m.currentSceneLocked()
	if sc == nil {
		return
	}
	if m.Transition.NextEffectID != nil || m.Transition.NextPaletteName != nil {
		sc.BeginTransition(m.Transition.NextEffectID, m.Transition.NextPaletteName, 0, 0)
		sc.Update(0)
	}

	if m.pubsub != nil {
		m.pubsub.Publish(pubsub.TopicSceneChanged, strconv.Itoa(sc.ID), sc.ID)
	}
}

// Update drives one render tick: advances the active scene's effect,
// the scene-level and manager-level transition controllers, composites
// the frame, applies manager transition opacity, and hands the result
// to the emitter.
func (m *Manager) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc := m.currentSceneLocked()
	if sc == nil {
		return
	}

	e := sc.CurrentEffect()
	if e != nil {
		e.UpdateAll()
	}

	dt := m.activeDelta()
	sc.Update(dt)
	m.updateTransition(dt)

	frame := sc.Render()
	if frame == nil {
		return
	}
	if m.Transition.TransitionOpacity < 1.0 {
		for i, c := range frame {
			frame[i] = color.Brightness(c, m.Transition.TransitionOpacity)
		}
	}

	if m.emitter != nil {
		m.emitter.Send(frame)
	}
	if m.pubsub != nil {
		m.pubsub.PublishAll(pubsub.TopicFrameRendered, len(frame))
	}
}

// Validate checks the Manager-level invariant: at least one scene.
func (m *Manager) Validate() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.Scenes) == 0 {
		return fmt.Errorf("manager: must retain at least one scene")
	}
	return nil
}

// StatusSnapshot is a consistent read of the fields the status API
// reports, taken under the same lock the render actor mutates under.
type StatusSnapshot struct {
	CurrentSceneID    int
	SceneCount        int
	TransitionActive  bool
	TransitionOpacity float64
}

// Snapshot takes a lock-consistent read for the status API.
func (m *Manager) Snapshot() StatusSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return StatusSnapshot{
		CurrentSceneID:    derefOrZero(m.CurrentSceneID),
		SceneCount:        len(m.Scenes),
		TransitionActive:  m.Transition.Active,
		TransitionOpacity: m.Transition.TransitionOpacity,
	}
}

func derefOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
