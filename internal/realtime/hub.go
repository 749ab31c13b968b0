package realtime

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/ndlovu-dev/inkwell/pkg/logger"
	"github.com/ndlovu-dev/inkwell/pkg/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // 1 MiB

	defaultBufferSize = 64

	noteLookupTimeout = 5 * time.Second
)

// NoteFinder answers whether a note still exists, so joins against deleted
// notes fail fast instead of creating ghost rooms.
type NoteFinder interface {
	NoteExists(ctx context.Context, noteID string) (bool, error)
}

// Hub owns every live websocket connection and the room registry, and is the
// only component that mutates it. Presence and edit events for a given room
// are generated and enqueued under one lock, so every member observes them in
// the same relative order.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	conns    map[string]map[*connection]struct{}
	total    int

	notes    NoteFinder
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHub constructs a realtime hub backed by the supplied note lookup.
func NewHub(notes NoteFinder) *Hub {
	return &Hub{
		registry: NewRegistry(),
		conns:    make(map[string]map[*connection]struct{}),
		notes:    notes,
		log:      logger.WithModule("realtime"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				originHost := hostWithoutPort(origin)
				requestHost := hostWithoutPort(r.Host)
				return originHost == requestHost || isLoopback(originHost)
			},
		},
	}
}

// Serve upgrades the HTTP connection to a WebSocket bound to the
// authenticated identity and runs its read loop until disconnect.
func (h *Hub) Serve(userID, handle string, w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := newConnection(h, conn, userID, handle)

	h.mu.Lock()
	h.total++
	metrics.RealtimeConnections.Set(float64(h.total))
	h.mu.Unlock()

	go client.writeLoop()
	client.readLoop()
}

// Presence returns the current member list for a room.
func (h *Hub) Presence(noteID string) []string {
	return h.registry.Members(noteID)
}

// Snapshot reports occupied rooms and their member counts, for the health
// endpoint and the maintenance occupancy log.
func (h *Hub) Snapshot() map[string]int {
	return h.registry.Snapshot()
}

// Connections reports the number of live websocket connections.
func (h *Hub) Connections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.total
}

func (h *Hub) join(client *connection, noteID, handle string) {
	ctx, cancel := context.WithTimeout(context.Background(), noteLookupTimeout)
	exists, err := h.notes.NoteExists(ctx, noteID)
	cancel()
	if err != nil {
		h.log.Warn("note lookup failed on join", zap.String("note_id", noteID), zap.Error(err))
		client.enqueue(errorEvent(noteID, "unable to verify note"))
		return
	}
	if !exists {
		client.enqueue(errorEvent(noteID, "note not found"))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	members, _ := h.registry.Join(noteID, handle)

	if h.conns[noteID] == nil {
		h.conns[noteID] = make(map[*connection]struct{})
	}
	h.conns[noteID][client] = struct{}{}
	client.joined[noteID] = handle

	metrics.RealtimeRooms.Set(float64(h.registry.Len()))
	h.broadcastLocked(noteID, presenceUpdate(noteID, members))
}

func (h *Hub) leave(client *connection, noteID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	handle, wasMember := client.joined[noteID]
	if !wasMember {
		// Idempotent: a leave for a room this connection never joined is a
		// no-op beyond a fresh presence echo to the caller.
		client.enqueue(presenceUpdate(noteID, h.registry.Members(noteID)))
		return
	}

	delete(client.joined, noteID)
	h.dropFromRoomLocked(client, noteID)

	members, _ := h.registry.Leave(noteID, handle)
	metrics.RealtimeRooms.Set(float64(h.registry.Len()))

	h.broadcastLocked(noteID, presenceUpdate(noteID, members))
	// The departing connection is no longer subscribed; echo it the final
	// list directly so its UI can clear.
	client.enqueue(presenceUpdate(noteID, members))
}

// broadcastEdit fans a content-changed notification out to every connection in
// the room, the sender included; a redundant refresh is harmless. Persistence
// is not implied: that happens through the mutation API.
func (h *Hub) broadcastEdit(noteID, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastLocked(noteID, noteUpdated(noteID, content))
}

// unregister tears the connection out of every room it joined, covering
// abrupt disconnects that never sent leave_note.
func (h *Hub) unregister(client *connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for noteID, handle := range client.joined {
		delete(client.joined, noteID)
		h.dropFromRoomLocked(client, noteID)

		members, _ := h.registry.Leave(noteID, handle)
		h.broadcastLocked(noteID, presenceUpdate(noteID, members))
	}

	if h.total > 0 {
		h.total--
	}
	metrics.RealtimeConnections.Set(float64(h.total))
	metrics.RealtimeRooms.Set(float64(h.registry.Len()))
}

func (h *Hub) dropFromRoomLocked(client *connection, noteID string) {
	peers := h.conns[noteID]
	if peers == nil {
		return
	}
	delete(peers, client)
	if len(peers) == 0 {
		delete(h.conns, noteID)
	}
}

func (h *Hub) broadcastLocked(noteID string, message Message) {
	peers := h.conns[noteID]
	if len(peers) == 0 {
		return
	}

	metrics.RealtimeEvents.WithLabelValues(message.Event).Inc()
	for peer := range peers {
		peer.enqueue(message)
	}
}

type connection struct {
	hub    *Hub
	socket *websocket.Conn
	userID string
	handle string
	joined map[string]string // note id -> handle used when joining
	send   chan Message
	once   sync.Once

	sendMu sync.Mutex
	closed bool
}

func newConnection(hub *Hub, conn *websocket.Conn, userID, handle string) *connection {
	return &connection{
		hub:    hub,
		socket: conn,
		userID: userID,
		handle: handle,
		joined: make(map[string]string),
		send:   make(chan Message, defaultBufferSize),
	}
}

func (c *connection) readLoop() {
	defer c.close()

	c.socket.SetReadLimit(maxMessageSize)
	_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
	c.socket.SetPongHandler(func(string) error {
		_ = c.socket.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("unexpected close", zap.String("user_id", c.userID), zap.Error(err))
			}
			break
		}

		if len(payload) == 0 {
			continue
		}

		var ctrl controlMessage
		if err := json.Unmarshal(payload, &ctrl); err != nil {
			c.hub.log.Warn("invalid control payload", zap.String("user_id", c.userID), zap.Error(err))
			continue
		}

		c.dispatch(ctrl)
	}
}

func (c *connection) dispatch(ctrl controlMessage) {
	noteID := strings.TrimSpace(ctrl.NoteID)

	switch strings.ToLower(strings.TrimSpace(ctrl.Action)) {
	case ActionJoinNote:
		if noteID == "" {
			c.enqueue(errorEvent("", "join_note requires note_id"))
			return
		}
		handle := strings.TrimSpace(ctrl.UserHandle)
		if handle == "" {
			handle = c.handle
		}
		c.hub.join(c, noteID, handle)
	case ActionLeaveNote:
		if noteID == "" {
			c.enqueue(errorEvent("", "leave_note requires note_id"))
			return
		}
		c.hub.leave(c, noteID)
	case ActionEditNote:
		if noteID == "" {
			c.enqueue(errorEvent("", "edit_note requires note_id"))
			return
		}
		c.hub.broadcastEdit(noteID, ctrl.Content)
	case ActionPing:
		c.enqueue(Message{Event: EventPong})
	default:
		c.hub.log.Warn("unsupported control action",
			zap.String("action", ctrl.Action),
			zap.String("user_id", c.userID),
		)
	}
}

func (c *connection) writeLoop() {
	defer c.close()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteJSON(message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue never blocks the broadcasting caller: a connection that cannot keep
// up is closed and treated as an implicit disconnect.
func (c *connection) enqueue(message Message) {
	c.sendMu.Lock()
	if c.closed {
		c.sendMu.Unlock()
		return
	}

	select {
	case c.send <- message:
		c.sendMu.Unlock()
	default:
		c.sendMu.Unlock()
		c.hub.log.Warn("dropping backpressure client", zap.String("user_id", c.userID))
		go c.close()
	}
}

func (c *connection) close() {
	c.once.Do(func() {
		c.hub.unregister(c)

		c.sendMu.Lock()
		c.closed = true
		close(c.send)
		c.sendMu.Unlock()

		_ = c.socket.Close()
	})
}

func hostWithoutPort(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		return ""
	}

	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		parsed, err := http.NewRequest(http.MethodGet, host, nil)
		if err == nil {
			return hostWithoutPort(parsed.URL.Host)
		}
	}

	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func isLoopback(host string) bool {
	ip := net.ParseIP(host)
	if ip != nil {
		return ip.IsLoopback()
	}
	return strings.EqualFold(host, "localhost")
}
