package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wonny/optsignals/internal/contracts"
	"github.com/wonny/optsignals/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
)

// EventSignal is the only event type pushed today
const EventSignal = "signal"

// Event is the message pushed to subscribers
type Event struct {
	Type   string            `json:"type"`
	Symbol string            `json:"symbol"`
	Signal *contracts.Signal `json:"signal"`
	SentAt time.Time         `json:"sent_at"`
}

type subscriber struct {
	conn    *websocket.Conn
	send    chan []byte
	symbols map[string]bool // empty = every symbol
	once    sync.Once
}

func (s *subscriber) wants(symbol string) bool {
	return len(s.symbols) == 0 || s.symbols[symbol]
}

// Hub broadcasts signals to WebSocket subscribers. Subscribers that cannot
// keep up are disconnected rather than blocking publishers.
// ⭐ SSOT: 실시간 시그널 브로드캐스트는 여기서만
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	closed      bool
}

// NewHub creates a hub. Every origin is accepted, matching the API's CORS policy.
func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.NewNop()
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:      log,
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Publish sends a signal to every interested subscriber
func (h *Hub) Publish(signal *contracts.Signal) {
	if signal == nil {
		return
	}

	msg, err := json.Marshal(Event{
		Type:   EventSignal,
		Symbol: signal.Symbol,
		Signal: signal,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		h.logger.WithError(err).Error("Failed to encode signal event")
		return
	}

	var slow []*subscriber
	h.mu.RLock()
	for sub := range h.subscribers {
		if !sub.wants(signal.Symbol) {
			continue
		}
		select {
		case sub.send <- msg:
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		h.logger.Warn("Dropping slow websocket subscriber")
		h.remove(sub)
	}
}

// ServeWS upgrades the request and streams events until the client leaves.
// ?symbols=NIFTY,BANKNIFTY limits the stream to those symbols.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade failed")
		return
	}

	sub := &subscriber{
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		symbols: parseSymbols(r.URL.Query().Get("symbols")),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.subscribers[sub] = struct{}{}
	count := len(h.subscribers)
	h.mu.Unlock()

	h.logger.WithField("subscribers", count).Debug("WebSocket subscriber joined")

	go h.writePump(sub)
	h.readPump(sub)
}

// readPump only services control frames; inbound messages are ignored
func (h *Hub) readPump(sub *subscriber) {
	defer h.remove(sub)

	sub.conn.SetReadLimit(maxMessageSize)
	_ = sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = sub.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sub.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	sub.once.Do(func() {
		h.mu.Lock()
		delete(h.subscribers, sub)
		h.mu.Unlock()
		close(sub.send)
	})
}

// Subscribers returns the number of connected clients
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close disconnects every subscriber and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	subs := make([]*subscriber, 0, len(h.subscribers))
	for sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.Unlock()

	for _, sub := range subs {
		h.remove(sub)
	}
}

func parseSymbols(raw string) map[string]bool {
	out := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out[part] = true
		}
	}
	return out
}
