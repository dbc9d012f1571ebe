package manager

import (
	"testing"
	"time"

	"github.com/tapelight/tapelight-go/internal/effect"
	"github.com/tapelight/tapelight-go/internal/pubsub"
	"github.com/tapelight/tapelight-go/internal/scene"
	"github.com/tapelight/tapelight-go/internal/segment"
	"github.com/tapelight/tapelight-go/pkg/color"
	"github.com/tapelight/tapelight-go/pkg/palette"
)

type recordingEmitter struct {
	frames int
}

func (r *recordingEmitter) Send(frame []color.RGB) {
	r.frames++
}

func newTestScene(id int) *scene.Scene {
	sc := scene.New(id)
	e := effect.New(1, 10, 10, palette.NewTable())
	s := segment.NewDefault(1)
	s.MoveSpeed = 0
	e.AddSegment(s)
	sc.AddEffect(e)
	return sc
}

func TestAddScene_FirstBecomesCurrent(t *testing.T) {
	m := New(nil, nil)
	m.AddScene(newTestScene(1))
	if m.CurrentSceneID == nil || *m.CurrentSceneID != 1 {
		t.Error("first added scene should become current")
	}
}

func TestRemoveScene_RefusesLast(t *testing.T) {
	m := New(nil, nil)
	m.AddScene(newTestScene(1))
	if err := m.RemoveScene(1); err == nil {
		t.Error("expected error removing the last scene")
	}
}

func TestUpdate_EmitsFrame(t *testing.T) {
	em := &recordingEmitter{}
	m := New(nil, em)
	m.AddScene(newTestScene(1))
	m.Update()
	if em.frames != 1 {
		t.Errorf("frames emitted = %d, want 1", em.frames)
	}
}

func TestSwitchScene_S6Schedule(t *testing.T) {
	m := New(nil, nil)
	m.AddScene(newTestScene(1))
	m.AddScene(newTestScene(2))

	next := 2
	m.SwitchScene(&next, nil, nil, 1.0, 1.0)

	// 0.5s in: mid fade-out, opacity should be between 0 and 1 and scene 1 still current.
	m.Transition.Elapsed = 0.5
	m.updateTransition(0)
	if m.Transition.TransitionOpacity <= 0 || m.Transition.TransitionOpacity >= 1 {
		t.Errorf("mid fade-out opacity = %v, want in (0,1)", m.Transition.TransitionOpacity)
	}
	if m.CurrentSceneID == nil || *m.CurrentSceneID != 1 {
		t.Error("scene should not have swapped yet")
	}

	// 1.05s in: within gap-hold window, swap should have fired and opacity 0.
	m.Transition.Elapsed = 1.05
	m.updateTransition(0)
	if m.Transition.TransitionOpacity != 0 {
		t.Errorf("gap-hold opacity = %v, want 0", m.Transition.TransitionOpacity)
	}
	if m.CurrentSceneID == nil || *m.CurrentSceneID != 2 {
		t.Error("scene should have swapped to scene 2 during gap-hold")
	}

	// 2.2s in: past fade-out+gap+fade-in, transition should be fully done.
	m.Transition.Elapsed = 2.2
	m.updateTransition(0)
	if m.Transition.Active {
		t.Error("transition should be inactive after full schedule elapses")
	}
	if m.Transition.TransitionOpacity != 1 {
		t.Errorf("final opacity = %v, want 1", m.Transition.TransitionOpacity)
	}
}

func TestSwitchScene_ScopesSceneChangedToSceneFilter(t *testing.T) {
	ps := pubsub.New()
	m := New(ps, nil)
	m.AddScene(newTestScene(1))
	m.AddScene(newTestScene(2))

	subScene2 := ps.Subscribe(pubsub.TopicSceneChanged, "2", 4)
	subScene1 := ps.Subscribe(pubsub.TopicSceneChanged, "1", 4)

	next := 2
	m.SwitchScene(&next, nil, nil, 1.0, 1.0)
	m.Transition.Elapsed = 1.05
	m.updateTransition(0) // fires inside the gap-hold window, triggering performSwap

	select {
	case v := <-subScene2.Channel:
		if v != 2 {
			t.Errorf("SCENE_CHANGED payload = %v, want 2", v)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("scene-2-scoped subscriber did not receive SCENE_CHANGED")
	}

	select {
	case v := <-subScene1.Channel:
		t.Errorf("scene-1-scoped subscriber should not have received SCENE_CHANGED, got %v", v)
	default:
	}
}

func TestValidate_NoScenesErrors(t *testing.T) {
	m := New(nil, nil)
	if err := m.Validate(); err == nil {
		t.Error("expected validation error for manager with no scenes")
	}
}
