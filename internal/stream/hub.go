package stream

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/Garsondee/Chicken-Arena/internal/game"
)

const writeWait = 2 * time.Second

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *subscriber) write(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(data)
}

func (s *subscriber) writeLocked(data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub fans snapshots out to every connected websocket client. A client that
// joins mid-match receives the latest frame first.
type Hub struct {
	matchID string
	logger  *slog.Logger

	mu          sync.Mutex
	subscribers map[uint64]*subscriber
	last        []byte
	nextID      atomic.Uint64
	sent        atomic.Uint64

	upgrader websocket.Upgrader
}

// NewHub creates a hub for one match.
func NewHub(matchID string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Hub{
		matchID:     matchID,
		logger:      logger,
		subscribers: make(map[uint64]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// FramesSent returns how many frame writes succeeded across all clients.
func (h *Hub) FramesSent() uint64 { return h.sent.Load() }

// Broadcast encodes s and writes it to every client, dropping clients whose
// write fails.
func (h *Hub) Broadcast(s game.Snapshot) error {
	data, err := json.Marshal(NewFrame(h.matchID, s))
	if err != nil {
		return err
	}

	h.mu.Lock()
	h.last = data
	subs := make(map[uint64]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.write(data); err != nil {
			h.logger.Warn("dropping subscriber", "id", id, "err", err)
			h.unsubscribe(id)
			continue
		}
		h.sent.Add(1)
	}
	return nil
}

// Renderer adapts Broadcast to the engine's renderer hook.
func (h *Hub) Renderer() game.Renderer {
	return func(s game.Snapshot) {
		if err := h.Broadcast(s); err != nil {
			h.logger.Error("broadcast failed", "tick", s.Tick, "err", err)
		}
	}
}

// subscribe registers conn and sends it the latest frame. The subscriber's
// write lock is held from registration until that frame is out, so a
// concurrent Broadcast can only deliver newer frames after it.
func (h *Hub) subscribe(conn *websocket.Conn) (uint64, error) {
	id := h.nextID.Add(1)
	sub := &subscriber{conn: conn}
	sub.mu.Lock()
	defer sub.mu.Unlock()

	h.mu.Lock()
	h.subscribers[id] = sub
	last := h.last
	h.mu.Unlock()
	if last == nil {
		return id, nil
	}
	return id, sub.writeLocked(last)
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	delete(h.subscribers, id)
	h.mu.Unlock()
	if ok {
		sub.conn.Close()
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subscribers
	h.subscribers = make(map[uint64]*subscriber)
	h.mu.Unlock()
	for _, sub := range subs {
		sub.mu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match over")
		sub.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		sub.mu.Unlock()
		sub.conn.Close()
	}
}

// ServeWS upgrades the request and holds the connection until the client
// goes away. Client messages are ignored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	id, err := h.subscribe(conn)
	if err != nil {
		h.unsubscribe(id)
		return
	}
	h.logger.Info("subscriber joined", "id", id, "remote", r.RemoteAddr)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.unsubscribe(id)
			h.logger.Info("subscriber left", "id", id)
			return
		}
	}
}

// Handler serves /ws, /schema.json and /state (the latest frame).
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	mux.HandleFunc("/schema.json", func(w http.ResponseWriter, r *http.Request) {
		data, err := json.MarshalIndent(Schema(), "", "  ")
		if err != nil {
			http.Error(w, "failed to encode schema", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/schema+json")
		w.Write(data)
	})
	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		last := h.last
		h.mu.Unlock()
		if last == nil {
			http.Error(w, "no frame yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(last)
	})
	return mux
}
