// Package control implements the OSC-over-UDP control plane described
// by spec component C7: it receives addressed messages that mutate the
// manager's scene/effect/segment tree and emits confirming events back
// to the configured reply address.
package control

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/hypebeast/go-osc/osc"

	"github.com/tapelight/tapelight-go/internal/database/repositories"
	"github.com/tapelight/tapelight-go/internal/effect"
	"github.com/tapelight/tapelight-go/internal/manager"
	"github.com/tapelight/tapelight-go/internal/output"
	"github.com/tapelight/tapelight-go/internal/persistence"
	"github.com/tapelight/tapelight-go/internal/pubsub"
	"github.com/tapelight/tapelight-go/internal/scene"
	"github.com/tapelight/tapelight-go/internal/segment"
	"github.com/tapelight/tapelight-go/pkg/color"
)

// outputBroadcastAddrKey is the settings-store key under which the last
// accepted /update_serial_output address is persisted, so it survives a
// restart. Matches the key name documented for the settings store.
const outputBroadcastAddrKey = "output.broadcast_addr"

// legacyPaletteNames are the single-letter palette identifiers accepted
// by the /palette/{A..E} legacy route.
var legacyPaletteNames = map[string]bool{"A": true, "B": true, "C": true, "D": true, "E": true}

// Dispatcher routes inbound OSC messages against the canonical address
// grammar and mutates the manager accordingly. It implements
// osc.Dispatcher directly rather than osc.StandardDispatcher's literal
// pattern matching, since most routes carry dynamic numeric ids.
type Dispatcher struct {
	mu  sync.Mutex
	mgr *manager.Manager

	replyClient *osc.Client
	sender      *output.Sender
	ps          *pubsub.PubSub
	settings    *repositories.SettingRepository

	defaultLEDCount int
	defaultFPS      int
}

// SetPubSub attaches a pub/sub bus so confirming events also fan out to
// in-process observers (the status API's WebSocket hub) alongside the
// OSC reply.
func (d *Dispatcher) SetPubSub(ps *pubsub.PubSub) {
	d.ps = ps
}

// SetSettings attaches the settings repository so accepted output
// address changes persist across restarts.
func (d *Dispatcher) SetSettings(settings *repositories.SettingRepository) {
	d.settings = settings
}

// New creates a Dispatcher bound to a Manager and an outbound reply
// client used for confirmation events and /request/init snapshots.
func New(mgr *manager.Manager, replyClient *osc.Client, sender *output.Sender, defaultLEDCount, defaultFPS int) *Dispatcher {
	return &Dispatcher{
		mgr:             mgr,
		replyClient:     replyClient,
		sender:          sender,
		defaultLEDCount: defaultLEDCount,
		defaultFPS:      defaultFPS,
	}
}

// Dispatch implements osc.Dispatcher. Errors in an individual message
// are logged and dropped; they never propagate to the receive loop
// (spec.md §7 error policy).
func (d *Dispatcher) Dispatch(packet osc.Packet) {
	switch p := packet.(type) {
	case *osc.Message:
		d.handleMessage(p)
	case *osc.Bundle:
		for _, m := range p.Messages {
			d.handleMessage(m)
		}
		for _, b := range p.Bundles {
			d.Dispatch(b)
		}
	}
}

func (d *Dispatcher) handleMessage(msg *osc.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("control: recovered from panic handling %s: %v", msg.Address, r)
		}
	}()

	addr := rewriteLegacy(msg.Address)
	parts := splitAddr(addr)

	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case addr == "/request/init":
		d.handleRequestInit(msg)
	case addr == "/update_serial_output":
		d.handleUpdateSerialOutput(msg)
	case len(parts) >= 2 && parts[0] == "scene_manager":
		d.handleSceneManager(parts[1], msg)
	case len(parts) >= 2 && parts[0] == "scene":
		d.handleScene(parts, msg)
	default:
		log.Printf("control: malformed address %q, dropping", msg.Address)
	}
}

// rewriteLegacy rewrites legacy address forms to canonical form against
// scene id 1, per spec.md §4.7.
func rewriteLegacy(addr string) string {
	parts := splitAddr(addr)

	// /effect/{e}/segment/{g}/{param} and /effect/{e}/object/{g}/{param}
	if len(parts) == 5 && parts[0] == "effect" && (parts[2] == "segment" || parts[2] == "object") {
		return fmt.Sprintf("/scene/1/effect/%s/segment/%s/%s", parts[1], parts[3], parts[4])
	}

	// /palette/{A..E}
	if len(parts) == 2 && parts[0] == "palette" && legacyPaletteNames[parts[1]] {
		return fmt.Sprintf("/scene/1/update_palette_letter/%s", parts[1])
	}

	return addr
}

// sceneFilterFromAddress extracts the scene id from a canonical
// "/scene/{id}/..." confirmation address, so subscribers can scope
// themselves to one scene's control events. Returns "" for addresses
// that aren't scene-scoped (e.g. /request/init or /serial_output_updated).
func sceneFilterFromAddress(address string) string {
	parts := splitAddr(address)
	if len(parts) >= 2 && parts[0] == "scene" {
		if _, err := strconv.Atoi(parts[1]); err == nil {
			return parts[1]
		}
	}
	return ""
}

func splitAddr(addr string) []string {
	trimmed := strings.Trim(addr, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func (d *Dispatcher) reply(address string, args ...interface{}) {
	if d.ps != nil {
		payload := map[string]interface{}{"address": address, "args": args}
		if filter := sceneFilterFromAddress(address); filter != "" {
			d.ps.Publish(pubsub.TopicControlEvent, filter, payload)
		} else {
			d.ps.PublishAll(pubsub.TopicControlEvent, payload)
		}
	}
	if d.replyClient == nil {
		return
	}
	msg := osc.NewMessage(address)
	for _, a := range args {
		msg.Append(a)
	}
	if err := d.replyClient.Send(msg); err != nil {
		log.Printf("control: reply send error for %s: %v", address, err)
	}
}

// --- scene_manager routes ---

func (d *Dispatcher) handleSceneManager(verb string, msg *osc.Message) {
	switch verb {
	case "add_scene":
		id, err := argInt(msg, 0)
		if err != nil {
			log.Printf("control: add_scene: %v", err)
			return
		}
		d.mgr.AddScene(scene.New(id))
		d.reply("/scene_manager/scene_added", id)

	case "remove_scene":
		id, err := argInt(msg, 0)
		if err != nil {
			log.Printf("control: remove_scene: %v", err)
			return
		}
		if err := d.mgr.RemoveScene(id); err != nil {
			log.Printf("control: remove_scene: %v", err)
			return
		}
		d.reply("/scene_manager/scene_removed", id)

	case "switch_scene":
		id, err := argInt(msg, 0)
		if err != nil {
			log.Printf("control: switch_scene: %v", err)
			return
		}
		if _, ok := d.mgr.Scenes[id]; !ok {
			log.Printf("control: switch_scene: scene %d not found", id)
			return
		}
		d.mgr.SwitchScene(&id, nil, nil, 1.0, 1.0)
		d.reply("/scene_manager/scene_switched", id)

	case "list_scenes":
		ids := make([]interface{}, 0, len(d.mgr.Scenes))
		for id := range d.mgr.Scenes {
			ids = append(ids, int32(id))
		}
		d.reply("/scene_manager/scenes", ids...)

	case "load_scene":
		path, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: load_scene: %v", err)
			return
		}
		sc, err := persistence.LoadScene(path)
		if err != nil {
			log.Printf("control: load_scene %s: %v", path, err)
			d.reply("/scene_manager/load_scene_error", path, err.Error())
			return
		}
		if len(msg.Arguments) >= 2 {
			if id, err := argInt(msg, 1); err == nil {
				sc.ID = id
			}
		}
		d.mgr.AddScene(sc)
		d.reply("/scene_manager/scene_loaded", sc.ID)

	case "load_scene_data":
		data, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: load_scene_data: %v", err)
			return
		}
		sc, err := persistence.LoadSceneData(data)
		if err != nil {
			log.Printf("control: load_scene_data: %v", err)
			d.reply("/scene_manager/load_scene_error", err.Error())
			return
		}
		if len(msg.Arguments) >= 2 {
			if id, err := argInt(msg, 1); err == nil {
				sc.ID = id
			}
		}
		d.mgr.AddScene(sc)
		d.reply("/scene_manager/scene_loaded", sc.ID)

	default:
		log.Printf("control: unknown scene_manager verb %q, dropping", verb)
	}
}

// --- scene routes ---

func (d *Dispatcher) handleScene(parts []string, msg *osc.Message) {
	sceneID, err := strconv.Atoi(parts[1])
	if err != nil {
		log.Printf("control: malformed scene id %q, dropping", parts[1])
		return
	}
	sc, ok := d.mgr.Scenes[sceneID]
	if !ok {
		log.Printf("control: scene %d not found, dropping", sceneID)
		return
	}

	if len(parts) == 3 {
		d.handleSceneVerb(sc, parts[2], msg)
		return
	}

	if len(parts) >= 4 && parts[2] == "effect" {
		d.handleEffectRoute(sc, parts[3:], msg)
		return
	}

	if len(parts) == 4 && parts[2] == "update_palette_letter" {
		d.handleSceneVerb(sc, parts[2], msg)
		return
	}

	log.Printf("control: malformed address under scene %d, dropping", sceneID)
}

func (d *Dispatcher) handleSceneVerb(sc *scene.Scene, verb string, msg *osc.Message) {
	switch verb {
	case "set_palette":
		name, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: scene set_palette: %v", err)
			return
		}
		sc.SetPalette(name)
		d.reply(fmt.Sprintf("/scene/%d/palette_set", sc.ID), name)

	case "change_palette":
		name, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: scene change_palette: %v", err)
			return
		}
		sc.BeginTransition(nil, &name, 1.0, 1.0)
		d.reply(fmt.Sprintf("/scene/%d/palette_changing", sc.ID), name)

	case "change_effect":
		id, err := argInt(msg, 0)
		if err != nil {
			log.Printf("control: scene change_effect: %v", err)
			return
		}
		if _, ok := sc.Effects[id]; !ok {
			log.Printf("control: scene %d change_effect: effect %d not found", sc.ID, id)
			return
		}
		sc.BeginTransition(&id, nil, 1.0, 1.0)
		d.reply(fmt.Sprintf("/scene/%d/effect_changing", sc.ID), id)

	case "add_effect":
		id, err := argInt(msg, 0)
		if err != nil {
			log.Printf("control: scene add_effect: %v", err)
			return
		}
		e := effect.New(id, d.defaultLEDCount, d.defaultFPS, sc.Palettes)
		e.AddSegment(segment.NewDefault(1))
		sc.AddEffect(e)
		d.reply(fmt.Sprintf("/scene/%d/effect_added", sc.ID), id)

	case "remove_effect":
		id, err := argInt(msg, 0)
		if err != nil {
			log.Printf("control: scene remove_effect: %v", err)
			return
		}
		if err := sc.RemoveEffect(id); err != nil {
			log.Printf("control: scene remove_effect: %v", err)
			return
		}
		d.reply(fmt.Sprintf("/scene/%d/effect_removed", sc.ID), id)

	case "update_palette_letter":
		// legacy /palette/{X} rewritten form; args are a flat int
		// sequence of length 3*N reshaped into N RGB triples.
		d.handleUpdatePaletteLetter(sc, msg)

	case "update_palettes":
		// Whole-table updates carry a dictionary-shaped payload (§6);
		// without a structured argument the dispatcher cannot safely
		// reshape it, so it logs and drops per the malformed-address
		// policy in spec.md §7.
		log.Printf("control: scene %d update_palettes requires a dictionary payload, dropping", sc.ID)

	case "save_effects":
		path, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: scene %s: %v", verb, err)
			return
		}
		if err := persistence.SaveEffects(sc, path); err != nil {
			log.Printf("control: scene %d save_effects %s: %v", sc.ID, path, err)
			d.reply(fmt.Sprintf("/scene/%d/save_effects_error", sc.ID), path, err.Error())
			return
		}
		d.reply(fmt.Sprintf("/scene/%d/effects_saved", sc.ID), path)

	case "load_effects":
		path, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: scene %s: %v", verb, err)
			return
		}
		if err := persistence.LoadEffects(sc, path); err != nil {
			log.Printf("control: scene %d load_effects %s: %v", sc.ID, path, err)
			d.reply(fmt.Sprintf("/scene/%d/load_effects_error", sc.ID), path, err.Error())
			return
		}
		d.reply(fmt.Sprintf("/scene/%d/effects_loaded", sc.ID), path)

	case "save_palettes":
		path, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: scene %s: %v", verb, err)
			return
		}
		if err := persistence.SavePalettes(sc, path); err != nil {
			log.Printf("control: scene %d save_palettes %s: %v", sc.ID, path, err)
			d.reply(fmt.Sprintf("/scene/%d/save_palettes_error", sc.ID), path, err.Error())
			return
		}
		d.reply(fmt.Sprintf("/scene/%d/palettes_saved", sc.ID), path)

	case "load_palettes":
		path, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: scene %s: %v", verb, err)
			return
		}
		if err := persistence.LoadPalettes(sc, path); err != nil {
			log.Printf("control: scene %d load_palettes %s: %v", sc.ID, path, err)
			d.reply(fmt.Sprintf("/scene/%d/load_palettes_error", sc.ID), path, err.Error())
			return
		}
		d.reply(fmt.Sprintf("/scene/%d/palettes_loaded", sc.ID), path)

	default:
		log.Printf("control: unknown scene verb %q, dropping", verb)
	}
}

func (d *Dispatcher) handleUpdatePaletteLetter(sc *scene.Scene, msg *osc.Message) {
	letterAddr := msg.Address
	letter := letterAddr[len(letterAddr)-1:]

	values := make([]int, 0, len(msg.Arguments))
	for _, a := range msg.Arguments {
		v, err := toInt(a)
		if err != nil {
			log.Printf("control: update_palette_letter: %v", err)
			return
		}
		values = append(values, v)
	}
	if len(values)%3 != 0 {
		log.Printf("control: update_palette_letter: argument count %d is not a multiple of 3", len(values))
		return
	}

	rgbs := make([]color.RGB, 0, len(values)/3)
	for i := 0; i+2 < len(values); i += 3 {
		rgbs = append(rgbs, color.RGB{
			R: clampByte(values[i]),
			G: clampByte(values[i+1]),
			B: clampByte(values[i+2]),
		})
	}

	sc.Palettes.SetColors(letter, rgbs)
	d.reply(fmt.Sprintf("/scene/%d/palette_updated", sc.ID), letter)
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// --- effect/segment routes ---

func (d *Dispatcher) handleEffectRoute(sc *scene.Scene, parts []string, msg *osc.Message) {
	if len(parts) == 0 {
		return
	}
	effectID, err := strconv.Atoi(parts[0])
	if err != nil {
		log.Printf("control: malformed effect id %q, dropping", parts[0])
		return
	}
	e, ok := sc.Effects[effectID]
	if !ok {
		log.Printf("control: effect %d not found in scene %d, dropping", effectID, sc.ID)
		return
	}

	if len(parts) == 2 {
		d.handleEffectVerb(sc, e, parts[1], msg)
		return
	}

	if len(parts) == 4 && parts[1] == "segment" {
		d.handleSegmentRoute(sc, e, parts[2], parts[3], msg)
		return
	}

	log.Printf("control: malformed address under effect %d, dropping", effectID)
}

func (d *Dispatcher) handleEffectVerb(sc *scene.Scene, e *effect.Effect, verb string, msg *osc.Message) {
	switch verb {
	case "set_palette", "direct_palette":
		name, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: effect %s: %v", verb, err)
			return
		}
		e.SetPalette(name)
		d.reply(fmt.Sprintf("/scene/%d/effect/%d/palette_set", sc.ID, e.ID), name)

	case "change_palette":
		name, err := argString(msg, 0)
		if err != nil {
			log.Printf("control: effect change_palette: %v", err)
			return
		}
		sc.BeginTransition(nil, &name, 1.0, 1.0)
		d.reply(fmt.Sprintf("/scene/%d/effect/%d/palette_changing", sc.ID, e.ID), name)

	case "add_segment":
		id := nextSegmentID(e)
		if len(msg.Arguments) > 0 {
			if v, err := argInt(msg, 0); err == nil {
				id = v
			}
		}
		e.AddSegment(segment.NewDefault(id))
		d.reply(fmt.Sprintf("/scene/%d/effect/%d/segment_added", sc.ID, e.ID), id)

	case "remove_segment":
		id, err := argInt(msg, 0)
		if err != nil {
			log.Printf("control: effect remove_segment: %v", err)
			return
		}
		if len(e.Segments) <= 1 {
			log.Printf("control: effect %d: refusing to remove last segment", e.ID)
			return
		}
		e.RemoveSegment(id)
		d.reply(fmt.Sprintf("/scene/%d/effect/%d/segment_removed", sc.ID, e.ID), id)

	default:
		log.Printf("control: unknown effect verb %q, dropping", verb)
	}
}

func nextSegmentID(e *effect.Effect) int {
	max := 0
	for id := range e.Segments {
		if id > max {
			max = id
		}
	}
	return max + 1
}

func (d *Dispatcher) handleSegmentRoute(sc *scene.Scene, e *effect.Effect, segIDStr, param string, msg *osc.Message) {
	segID, err := strconv.Atoi(segIDStr)
	if err != nil {
		log.Printf("control: malformed segment id %q, dropping", segIDStr)
		return
	}
	seg, ok := e.Segments[segID]
	if !ok {
		// Auto-create missing segment targets for legacy-rewritten
		// addresses, per spec.md §4.7.
		seg = segment.NewDefault(segID)
		e.AddSegment(seg)
	}

	value, err := coerceSegmentParam(param, msg.Arguments, seg)
	if err != nil {
		log.Printf("control: segment %d param %q: %v", segID, param, err)
		return
	}
	if err := seg.UpdateParam(param, value); err != nil {
		log.Printf("control: segment %d param %q: %v", segID, param, err)
		return
	}
	d.reply(fmt.Sprintf("/scene/%d/effect/%d/segment/%d/%s_set", sc.ID, e.ID, segID, param), msg.Arguments...)
}

// --- update_serial_output ---

func (d *Dispatcher) handleUpdateSerialOutput(msg *osc.Message) {
	if d.sender == nil {
		return
	}
	enabled, err := argBool(msg, 0)
	if err != nil {
		log.Printf("control: update_serial_output: %v", err)
		return
	}
	if !enabled {
		d.sender.Disable()
		d.reply("/serial_output_updated", false)
		return
	}
	if len(msg.Arguments) >= 2 {
		ip, err := argString(msg, 1)
		if err == nil {
			if rerr := d.sender.ReloadAddr(ip); rerr != nil {
				log.Printf("control: update_serial_output: reload addr: %v", rerr)
				return
			}
			d.persistBroadcastAddr(ip)
		}
	} else if err := d.sender.Enable(); err != nil {
		log.Printf("control: update_serial_output: enable: %v", err)
		return
	}
	d.reply("/serial_output_updated", true)
}

// persistBroadcastAddr saves the accepted output address so it survives
// a restart. Failures are logged, not fatal — the in-memory sender is
// already pointed at the new address regardless.
func (d *Dispatcher) persistBroadcastAddr(addr string) {
	if d.settings == nil {
		return
	}
	if _, err := d.settings.Upsert(context.Background(), outputBroadcastAddrKey, addr); err != nil {
		log.Printf("control: persist %s: %v", outputBroadcastAddrKey, err)
	}
}

// --- request/init ---

func (d *Dispatcher) handleRequestInit(msg *osc.Message) {
	flag, err := argInt(msg, 0)
	if err != nil || flag != 1 {
		return
	}
	for sceneID, sc := range d.mgr.Scenes {
		for effectID, e := range sc.Effects {
			for segID, seg := range e.Segments {
				base := fmt.Sprintf("/scene/%d/effect/%d/segment/%d", sceneID, effectID, segID)
				d.reply(base+"/color", intsToArgs(seg.ColorIndices[:])...)
				d.reply(base+"/position", seg.CurrentPos, seg.MoveRange[0], seg.MoveRange[1])
				d.reply(base+"/span", intsToArgs(seg.Length[:])...)
				d.reply(base+"/transparency", floatsToArgs(seg.Transparency[:])...)
				d.reply(base+"/is_edge_reflect", seg.IsEdgeReflect)
				d.reply(base+"/dimmer_time", intsToArgs(seg.DimmerTime[:])...)
				d.reply(base+"/dimmer_time_ratio", seg.DimmerTimeRatio)

				legacy := fmt.Sprintf("/effect/%d/segment/%d", effectID, segID)
				d.reply(legacy+"/color", intsToArgs(seg.ColorIndices[:])...)
				d.reply(fmt.Sprintf("/effect/%d/object/%d/color", effectID, segID), intsToArgs(seg.ColorIndices[:])...)
			}
			d.reply(fmt.Sprintf("/scene/%d/effect/%d/current_palette", sceneID, effectID), e.CurrentPaletteName)
		}
		d.reply(fmt.Sprintf("/scene/%d/current_effect", sceneID), derefOrZero(sc.CurrentEffectID))
		d.reply(fmt.Sprintf("/scene/%d/current_palette", sceneID), sc.CurrentPaletteName)
	}
	d.reply("/manager/current_scene", derefOrZero(d.mgr.CurrentSceneID))
}

func derefOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func intsToArgs(vals []int) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = int32(v)
	}
	return out
}

func floatsToArgs(vals []float64) []interface{} {
	out := make([]interface{}, len(vals))
	for i, v := range vals {
		out[i] = float32(v)
	}
	return out
}

// --- argument extraction ---

func argAt(msg *osc.Message, i int) (interface{}, error) {
	if i < 0 || i >= len(msg.Arguments) {
		return nil, fmt.Errorf("missing argument %d", i)
	}
	return msg.Arguments[i], nil
}

func argInt(msg *osc.Message, i int) (int, error) {
	v, err := argAt(msg, i)
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

func argString(msg *osc.Message, i int) (string, error) {
	v, err := argAt(msg, i)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %d is not a string: %v", i, v)
	}
	return s, nil
}

func argBool(msg *osc.Message, i int) (bool, error) {
	v, err := argAt(msg, i)
	if err != nil {
		return false, err
	}
	return toBool(v)
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case float32:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to int: %w", n, err)
		}
		return int(f), nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to int", v)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to float: %w", n, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to float", v)
	}
}

func toBool(v interface{}) (bool, error) {
	switch n := v.(type) {
	case bool:
		return n, nil
	case int32:
		return n != 0, nil
	case int64:
		return n != 0, nil
	case float32:
		return n != 0, nil
	case float64:
		return n != 0, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(n)) {
		case "true", "yes", "1", "on":
			return true, nil
		case "false", "no", "0", "off":
			return false, nil
		}
		return false, fmt.Errorf("cannot coerce %q to bool", n)
	default:
		return false, fmt.Errorf("cannot coerce %T to bool", v)
	}
}

// expandListString parses a single string argument that looks like a
// JSON array, or a whitespace/comma-delimited list, into multiple
// typed arguments before the per-param coercion runs, per spec.md
// §4.7. Strings that don't look like a list pass through unchanged so
// single numeric-string arguments (e.g. move_speed "42.5") keep
// working.
func expandListString(args []interface{}) []interface{} {
	if len(args) != 1 {
		return args
	}
	s, ok := args[0].(string)
	if !ok {
		return args
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return args
	}

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var vals []interface{}
		if err := json.Unmarshal([]byte(trimmed), &vals); err == nil {
			return vals
		}
	}

	if strings.ContainsAny(trimmed, ", ") {
		fields := strings.FieldsFunc(trimmed, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t'
		})
		if len(fields) > 1 {
			out := make([]interface{}, len(fields))
			for i, f := range fields {
				out[i] = strings.TrimSpace(f)
			}
			return out
		}
	}

	return args
}

// coerceSegmentParam applies the typed-coercion table from spec.md §4.7
// to an OSC argument list before it reaches Segment.UpdateParam, which
// expects the exact fixed-size array/scalar types declared in §3.
func coerceSegmentParam(param string, args []interface{}, seg *segment.Segment) (interface{}, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no value supplied")
	}

	switch param {
	case "color", "color_indices", "move_range", "transparency", "dimmer_time", "length":
		args = expandListString(args)
	}

	switch param {
	case "color", "color_indices":
		out := seg.ColorIndices
		if len(args) == 1 {
			if m, ok := args[0].(map[string]interface{}); ok {
				if listVal, ok := m["colors"]; ok {
					if list, ok := listVal.([]interface{}); ok {
						args = list
					}
				}
			}
		}
		if len(args) == 1 {
			v, err := toInt(args[0])
			if err != nil {
				return nil, err
			}
			out[0] = v
			return out, nil
		}
		if len(args) != 4 {
			return nil, fmt.Errorf("color requires 1 or 4 values, got %d", len(args))
		}
		for i, a := range args {
			v, err := toInt(a)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case "move_range":
		lo, hi := seg.MoveRange[0], seg.MoveRange[1]
		if len(args) == 1 {
			v, err := toFloat(args[0])
			if err != nil {
				return nil, err
			}
			hi = v
		} else {
			l, err := toFloat(args[0])
			if err != nil {
				return nil, err
			}
			h, err := toFloat(args[1])
			if err != nil {
				return nil, err
			}
			lo, hi = l, h
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		return [2]float64{lo, hi}, nil

	case "move_speed", "dimmer_time_ratio", "initial_position":
		return toFloat(args[0])

	case "transparency":
		out := seg.Transparency
		if len(args) == 1 {
			v, err := toFloat(args[0])
			if err != nil {
				return nil, err
			}
			for i := range out {
				out[i] = v
			}
			return out, nil
		}
		if len(args) != 4 {
			return nil, fmt.Errorf("transparency requires 1 or 4 values, got %d", len(args))
		}
		for i, a := range args {
			v, err := toFloat(a)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case "dimmer_time":
		out := seg.DimmerTime
		if len(args) == 1 {
			v, err := toInt(args[0])
			if err != nil {
				return nil, err
			}
			out[4] = v
			return out, nil
		}
		if len(args) < 5 {
			return nil, fmt.Errorf("dimmer_time requires 1 or at least 5 values, got %d", len(args))
		}
		for i := 0; i < 5; i++ {
			v, err := toInt(args[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case "is_edge_reflect", "fade", "gradient":
		return toBool(args[0])

	case "length":
		out := seg.Length
		if len(args) != 3 {
			return nil, fmt.Errorf("length requires 3 values, got %d", len(args))
		}
		for i, a := range args {
			v, err := toInt(a)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	case "gradient_colors":
		out := seg.GradientColors
		if len(args) != 3 {
			return nil, fmt.Errorf("gradient_colors requires 3 values, got %d", len(args))
		}
		for i, a := range args {
			v, err := toInt(a)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	default:
		// Unknown names pass through uncoerced; Segment.UpdateParam
		// rejects names it does not know, so such messages are dropped.
		if len(args) == 1 {
			return args[0], nil
		}
		return args, nil
	}
}
