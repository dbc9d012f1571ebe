// Package wsstream streams the pub/sub event feed to WebSocket clients
// for the status API (C12), using the register/unregister/broadcast hub
// pattern.
package wsstream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tapelight/tapelight-go/internal/pubsub"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Event is the JSON frame broadcast to every connected client.
type Event struct {
	Topic     string      `json:"topic"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans pub/sub events out to every connected WebSocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan Event

	ps *pubsub.PubSub
}

// NewHub creates a Hub for the given pubsub instance. It subscribes to
// nothing until Start is called.
func NewHub(ps *pubsub.PubSub) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]chan Event),
		ps:      ps,
	}
}

// Start subscribes to every topic and begins fanning events out.
func (h *Hub) Start() {
	topics := []pubsub.Topic{
		pubsub.TopicFrameRendered,
		pubsub.TopicSceneChanged,
		pubsub.TopicManagerTransition,
		pubsub.TopicControlEvent,
	}
	for _, topic := range topics {
		sub := h.ps.Subscribe(topic, "", 32)
		go h.drain(sub)
	}
}

func (h *Hub) drain(sub *pubsub.Subscriber) {
	for payload := range sub.Channel {
		h.broadcast(Event{Topic: string(sub.Topic), Payload: payload, Timestamp: time.Now()})
	}
}

func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- ev:
		default:
			log.Printf("wsstream: client %s backpressured, dropping event", conn.RemoteAddr())
		}
	}
}

// ServeHTTP upgrades the connection and registers it as a broadcast
// target until the client disconnects. A client may pass ?scene=N to
// receive SCENE_CHANGED/MANAGER_TRANSITION/CONTROL_EVENT events for that
// scene instead of the full feed; events published without a scene
// filter (or via PublishAll) also reach such a client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("wsstream: upgrade error: %v", err)
		return
	}

	if scene := r.URL.Query().Get("scene"); scene != "" {
		h.serveScoped(conn, scene)
		return
	}

	ch := make(chan Event, 32)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		close(ch)
		_ = conn.Close()
	}()

	go h.readPump(conn)

	for ev := range ch {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// serveScoped streams only the events filtered to one scene id,
// bypassing the shared broadcast map entirely: each scoped connection
// owns its own set of pubsub subscriptions with a non-empty Filter.
func (h *Hub) serveScoped(conn *websocket.Conn, scene string) {
	defer func() { _ = conn.Close() }()

	topics := []pubsub.Topic{
		pubsub.TopicSceneChanged,
		pubsub.TopicManagerTransition,
		pubsub.TopicControlEvent,
	}
	subs := make([]*pubsub.Subscriber, len(topics))
	for i, topic := range topics {
		subs[i] = h.ps.Subscribe(topic, scene, 32)
	}
	defer func() {
		for _, sub := range subs {
			h.ps.Unsubscribe(sub)
		}
	}()

	go h.readPump(conn)

	merged := make(chan Event, 32)
	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(sub *pubsub.Subscriber) {
			defer wg.Done()
			for payload := range sub.Channel {
				merged <- Event{Topic: string(sub.Topic), Payload: payload, Timestamp: time.Now()}
			}
		}(sub)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()

	for ev := range merged {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// readPump drains and discards client frames so the connection's
// read deadline and pong handling stay serviced; this hub is
// publish-only.
func (h *Hub) readPump(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
