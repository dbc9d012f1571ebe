// Package persistence implements the JSON document formats and
// load/save operations described by spec.md §6: per-entity documents
// for Effect, Segment, Scene, and Manager, plus whole-manager export
// and import bundles.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tapelight/tapelight-go/internal/effect"
	"github.com/tapelight/tapelight-go/internal/manager"
	"github.com/tapelight/tapelight-go/internal/pubsub"
	"github.com/tapelight/tapelight-go/internal/scene"
	"github.com/tapelight/tapelight-go/internal/segment"
	"github.com/tapelight/tapelight-go/pkg/color"
	"github.com/tapelight/tapelight-go/pkg/palette"
)

// SegmentDoc is the on-disk shape of a Segment (§6): every §3 attribute
// plus gradient, fade, gradient_colors, dimmer_time_ratio, and
// current_position.
type SegmentDoc struct {
	ID              int        `json:"id"`
	ColorIndices    [4]int     `json:"color_indices"`
	Transparency    [4]float64 `json:"transparency"`
	Length          [3]int     `json:"length"`
	MoveSpeed       float64    `json:"move_speed"`
	MoveRange       [2]float64 `json:"move_range"`
	CurrentPosition float64    `json:"current_position"`
	IsEdgeReflect   bool       `json:"is_edge_reflect"`
	DimmerTime      [5]int     `json:"dimmer_time"`
	DimmerTimeRatio float64    `json:"dimmer_time_ratio"`
	Fade            bool       `json:"fade"`
	Gradient        bool       `json:"gradient"`
	GradientColors  [3]int     `json:"gradient_colors"`
}

func toSegmentDoc(s *segment.Segment) SegmentDoc {
	return SegmentDoc{
		ID:              s.ID,
		ColorIndices:    s.ColorIndices,
		Transparency:    s.Transparency,
		Length:          s.Length,
		MoveSpeed:       s.MoveSpeed,
		MoveRange:       s.MoveRange,
		CurrentPosition: s.CurrentPos,
		IsEdgeReflect:   s.IsEdgeReflect,
		DimmerTime:      s.DimmerTime,
		DimmerTimeRatio: s.DimmerTimeRatio,
		Fade:            s.Fade,
		Gradient:        s.Gradient,
		GradientColors:  s.GradientColors,
	}
}

// fromSegmentDoc reconstructs a Segment from its document. Per the
// loader contract in §6, the runtime clock (Time) always starts at 0;
// the persisted position becomes both the initial and current position.
func fromSegmentDoc(d SegmentDoc) *segment.Segment {
	s := segment.NewDefault(d.ID)
	s.ColorIndices = d.ColorIndices
	s.Transparency = d.Transparency
	s.Length = d.Length
	s.MoveSpeed = d.MoveSpeed
	s.MoveRange = d.MoveRange
	s.InitialPos = d.CurrentPosition
	s.CurrentPos = d.CurrentPosition
	s.IsEdgeReflect = d.IsEdgeReflect
	s.DimmerTime = d.DimmerTime
	s.DimmerTimeRatio = d.DimmerTimeRatio
	s.Fade = d.Fade
	s.Gradient = d.Gradient
	s.GradientColors = d.GradientColors
	s.Time = 0
	return s
}

// EffectDoc is the on-disk shape of an Effect (§6).
type EffectDoc struct {
	EffectID       int                   `json:"effect_ID"`
	LEDCount       int                   `json:"led_count"`
	FPS            int                   `json:"fps"`
	Time           float64               `json:"time"`
	CurrentPalette string                `json:"current_palette"`
	Segments       map[string]SegmentDoc `json:"segments"`
}

func toEffectDoc(e *effect.Effect) EffectDoc {
	segs := make(map[string]SegmentDoc, len(e.Segments))
	for id, s := range e.Segments {
		segs[fmt.Sprintf("%d", id)] = toSegmentDoc(s)
	}
	return EffectDoc{
		EffectID:       e.ID,
		LEDCount:       e.LEDCount,
		FPS:            e.FPS,
		Time:           e.Time,
		CurrentPalette: e.CurrentPaletteName,
		Segments:       segs,
	}
}

func fromEffectDoc(d EffectDoc, pal *palette.Table) *effect.Effect {
	e := effect.New(d.EffectID, d.LEDCount, d.FPS, pal)
	e.CurrentPaletteName = d.CurrentPalette
	e.Time = 0
	for _, segDoc := range d.Segments {
		e.AddSegment(fromSegmentDoc(segDoc))
	}
	return e
}

// SaveEffect writes an Effect document to path.
func SaveEffect(e *effect.Effect, path string) error {
	return writeJSON(path, toEffectDoc(e))
}

// LoadEffect reads an Effect document from path.
func LoadEffect(path string, pal *palette.Table) (*effect.Effect, error) {
	var doc EffectDoc
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	return fromEffectDoc(doc, pal), nil
}

// SceneDoc is the on-disk shape of a Scene (§6).
type SceneDoc struct {
	SceneID        int                  `json:"scene_ID"`
	CurrentEffect  int                  `json:"current_effect_ID"`
	CurrentPalette string               `json:"current_palette"`
	Palettes       map[string][][3]int  `json:"palettes"`
	Effects        map[string]EffectDoc `json:"effects"`
}

func toSceneDoc(s *scene.Scene) SceneDoc {
	effects := make(map[string]EffectDoc, len(s.Effects))
	for id, e := range s.Effects {
		effects[fmt.Sprintf("%d", id)] = toEffectDoc(e)
	}
	palettes := make(map[string][][3]int)
	for _, name := range s.Palettes.Names() {
		colors := s.Palettes.Colors(name)
		triples := make([][3]int, len(colors))
		for i, c := range colors {
			triples[i] = [3]int{int(c.R), int(c.G), int(c.B)}
		}
		palettes[name] = triples
	}
	return SceneDoc{
		SceneID:        s.ID,
		CurrentEffect:  derefOrZero(s.CurrentEffectID),
		CurrentPalette: s.CurrentPaletteName,
		Palettes:       palettes,
		Effects:        effects,
	}
}

func derefOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// SaveScene writes a Scene document to path.
func SaveScene(s *scene.Scene, path string) error {
	return writeJSON(path, toSceneDoc(s))
}

// LoadScene reads a Scene document from path, reconstructing its
// palette table and effect/segment tree.
func LoadScene(path string) (*scene.Scene, error) {
	var doc SceneDoc
	if err := readJSON(path, &doc); err != nil {
		return nil, err
	}
	return sceneFromDoc(doc)
}

// LoadSceneData reconstructs a Scene from a JSON document supplied
// inline (the /scene_manager/load_scene_data address, §4.7) rather
// than read from a file.
func LoadSceneData(jsonData string) (*scene.Scene, error) {
	var doc SceneDoc
	if err := json.Unmarshal([]byte(jsonData), &doc); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal scene data: %w", err)
	}
	return sceneFromDoc(doc)
}

// EffectsDoc is the on-disk shape of a scene's effect table for the
// save_effects/load_effects addresses (§4.7): the same segments-keyed-
// by-id shape EffectDoc uses for a single effect's segments.
type EffectsDoc struct {
	Effects map[string]EffectDoc `json:"effects"`
}

// SaveEffects writes every effect owned by a scene to path.
func SaveEffects(s *scene.Scene, path string) error {
	doc := EffectsDoc{Effects: make(map[string]EffectDoc, len(s.Effects))}
	for id, e := range s.Effects {
		doc.Effects[fmt.Sprintf("%d", id)] = toEffectDoc(e)
	}
	return writeJSON(path, doc)
}

// LoadEffects reads an effect table from path and replaces the
// scene's effects with it, reusing the scene's existing palette
// table. The scene's current effect selection is preserved if the
// same id still exists; otherwise one of the loaded effects (in map
// iteration order, so not a fixed one) becomes current.
func LoadEffects(s *scene.Scene, path string) error {
	var doc EffectsDoc
	if err := readJSON(path, &doc); err != nil {
		return err
	}
	s.Effects = make(map[int]*effect.Effect, len(doc.Effects))
	for _, effDoc := range doc.Effects {
		e := fromEffectDoc(effDoc, s.Palettes)
		s.Effects[e.ID] = e
	}
	if s.CurrentEffectID != nil {
		if _, ok := s.Effects[*s.CurrentEffectID]; !ok {
			s.CurrentEffectID = nil
		}
	}
	if s.CurrentEffectID == nil {
		for id := range s.Effects {
			s.CurrentEffectID = &id
			break
		}
	}
	return nil
}

// PalettesDoc is the on-disk shape of a scene's palette table for the
// save_palettes/load_palettes addresses (§4.7).
type PalettesDoc struct {
	Palettes map[string][][3]int `json:"palettes"`
}

// SavePalettes writes a scene's palette table to path.
func SavePalettes(s *scene.Scene, path string) error {
	doc := PalettesDoc{Palettes: make(map[string][][3]int)}
	for _, name := range s.Palettes.Names() {
		colors := s.Palettes.Colors(name)
		triples := make([][3]int, len(colors))
		for i, c := range colors {
			triples[i] = [3]int{int(c.R), int(c.G), int(c.B)}
		}
		doc.Palettes[name] = triples
	}
	return writeJSON(path, doc)
}

// LoadPalettes reads a palette table from path and merges it into the
// scene's existing palette table (replacing any matching names).
func LoadPalettes(s *scene.Scene, path string) error {
	var doc PalettesDoc
	if err := readJSON(path, &doc); err != nil {
		return err
	}
	for name, triples := range doc.Palettes {
		colors := make([]color.RGB, len(triples))
		for i, t := range triples {
			colors[i] = color.RGB{R: uint8(clampByte(t[0])), G: uint8(clampByte(t[1])), B: uint8(clampByte(t[2]))}
		}
		s.Palettes.SetColors(name, colors)
	}
	return nil
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// ManagerDoc is the on-disk shape of the whole manager (§6).
type ManagerDoc struct {
	Scenes           []SceneDoc `json:"scenes"`
	CurrentScene     int        `json:"current_scene"`
	TransitionParams struct {
		FadeInTime  float64 `json:"fade_in_time"`
		FadeOutTime float64 `json:"fade_out_time"`
	} `json:"transition_params"`
}

// SaveManager writes the whole manager as a single export bundle.
func SaveManager(m *manager.Manager, path string, fadeIn, fadeOut float64) error {
	doc := ManagerDoc{
		CurrentScene: derefOrZero(m.CurrentSceneID),
	}
	doc.TransitionParams.FadeInTime = fadeIn
	doc.TransitionParams.FadeOutTime = fadeOut
	for _, s := range m.Scenes {
		doc.Scenes = append(doc.Scenes, toSceneDoc(s))
	}
	return writeJSON(path, doc)
}

// LoadManager reads a whole-manager export bundle and returns a freshly
// constructed Manager along with the persisted transition defaults.
func LoadManager(path string, ps *pubsub.PubSub, emitter manager.Emitter) (*manager.Manager, float64, float64, error) {
	var doc ManagerDoc
	if err := readJSON(path, &doc); err != nil {
		return nil, 0, 0, err
	}

	m := manager.New(ps, emitter)
	for _, sceneDoc := range doc.Scenes {
		s, err := sceneFromDoc(sceneDoc)
		if err != nil {
			return nil, 0, 0, err
		}
		m.AddScene(s)
	}
	if doc.CurrentScene != 0 {
		if _, ok := m.Scenes[doc.CurrentScene]; ok {
			id := doc.CurrentScene
			m.CurrentSceneID = &id
		}
	}
	return m, doc.TransitionParams.FadeInTime, doc.TransitionParams.FadeOutTime, nil
}

func sceneFromDoc(doc SceneDoc) (*scene.Scene, error) {
	s := scene.New(doc.SceneID)
	s.CurrentPaletteName = doc.CurrentPalette
	for name, triples := range doc.Palettes {
		colors := make([]color.RGB, len(triples))
		for i, t := range triples {
			colors[i] = color.RGB{R: uint8(clampByte(t[0])), G: uint8(clampByte(t[1])), B: uint8(clampByte(t[2]))}
		}
		s.Palettes.SetColors(name, colors)
	}
	for _, effDoc := range doc.Effects {
		e := fromEffectDoc(effDoc, s.Palettes)
		s.AddEffect(e)
	}
	if doc.CurrentEffect != 0 {
		if _, ok := s.Effects[doc.CurrentEffect]; ok {
			id := doc.CurrentEffect
			s.CurrentEffectID = &id
		}
	}
	return s, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("persistence: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("persistence: write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("persistence: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("persistence: unmarshal %s: %w", path, err)
	}
	return nil
}
