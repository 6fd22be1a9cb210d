package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/condanest/condanest/internal/watcher"
)

// Event types pushed over the websocket stream.
const (
	EventProgress    = "progress"
	EventEnvsChanged = "envs_changed"
)

// eventMessage is the wire shape of one pushed event.
type eventMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

const writeWait = 10 * time.Second

// Hub fans operation progress and environment change events out to
// connected websocket clients.
type Hub struct {
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan eventMessage
}

// NewHub creates an empty hub.
func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			// The server binds to loopback; same-host pages are fine.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]chan eventMessage),
	}
}

// HandleWS upgrades the connection and streams events until the client
// disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ch := make(chan eventMessage, 32)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	go h.writeLoop(conn, ch)

	// Read loop exists only to notice the client going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(conn)
}

func (h *Hub) writeLoop(conn *websocket.Conn, ch chan eventMessage) {
	for msg := range ch {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(msg); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	ch, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		close(ch)
	}
	h.mu.Unlock()
	conn.Close()
}

// Broadcast queues an event for every connected client. Slow clients drop
// events rather than block the caller.
func (h *Hub) Broadcast(eventType string, payload any) {
	msg := eventMessage{Type: eventType, Payload: payload}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("dropping event for slow client")
		}
	}
}

// RelayWatcher forwards environment directory change events from the
// filesystem watcher to connected clients until the channel closes.
func (h *Hub) RelayWatcher(events <-chan watcher.Event) {
	for ev := range events {
		h.Broadcast(EventEnvsChanged, map[string]string{"dir": ev.Dir})
	}
}
