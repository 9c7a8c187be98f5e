package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/lanepark/chesshall/internal/obslog"
	"github.com/lanepark/chesshall/pkg/gamedto"
)

// Inbound commands from a live connection.
type clientEvent struct {
	T        string `json:"t"`
	JoinCode string `json:"joinCode,omitempty"`
}

// Outbound push: the canonical view of the session that changed.
type pushEvent struct {
	T    string               `json:"t"`
	Game *gamedto.SessionView `json:"game,omitempty"`
}

type client struct {
	id     string
	send   chan []byte
	rooms  map[string]struct{}
	closed bool
}

// Hub owns room membership: which connections are interested in which
// join code. Connections subscribe only to rooms they explicitly join;
// publish delivers the canonical view to every current member, at most
// once per publish per connection, FIFO per room in publish order.
// Delivery failures never propagate to the mutation that triggered them.
type Hub struct {
	allowOrigins []string

	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]*client
}

func NewHub(allowOrigins []string) *Hub {
	return &Hub{
		allowOrigins: allowOrigins,
		clients:      make(map[string]*client),
		rooms:        make(map[string]map[string]*client),
	}
}

// ServeWS upgrades the request and runs the connection until it drops.
// Disconnect unsubscribes the connection from every room it joined.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	opts := &websocket.AcceptOptions{}
	if len(h.allowOrigins) > 0 {
		opts.OriginPatterns = h.allowOrigins
	} else {
		opts.InsecureSkipVerify = true
	}
	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.Error(err))
		return
	}

	cl := &client{
		id:    uuid.NewString(),
		send:  make(chan []byte, 64),
		rooms: make(map[string]struct{}),
	}
	h.register(cl)
	obslog.L().Info("ws_connect", zap.String("conn_id", cl.id))

	ctx := r.Context()
	go h.writeLoop(ctx, conn, cl)

	defer func() {
		h.Disconnect(cl.id)
		_ = conn.Close(websocket.StatusNormalClosure, "bye")
		obslog.L().Info("ws_disconnect", zap.String("conn_id", cl.id))
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		var msg clientEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		code := strings.ToLower(strings.TrimSpace(msg.JoinCode))
		switch msg.T {
		case "game:join":
			if code != "" {
				h.Subscribe(cl.id, code)
			}
		case "game:leave":
			if code != "" {
				h.Unsubscribe(cl.id, code)
			}
		}
	}
}

func (h *Hub) writeLoop(ctx context.Context, conn *websocket.Conn, cl *client) {
	ping := time.NewTicker(20 * time.Second)
	defer ping.Stop()
	for {
		select {
		case msg, ok := <-cl.send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ping.C:
			wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := conn.Ping(wctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
}

// Subscribe adds the connection to the room for joinCode.
func (h *Hub) Subscribe(connID, joinCode string) {
	code := strings.ToLower(strings.TrimSpace(joinCode))
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.clients[connID]
	if !ok || cl.closed {
		return
	}
	room := h.rooms[code]
	if room == nil {
		room = make(map[string]*client)
		h.rooms[code] = room
	}
	room[connID] = cl
	cl.rooms[code] = struct{}{}
	obslog.L().Debug("room_subscribe", zap.String("conn_id", connID), zap.String("join_code", code))
}

// Unsubscribe removes the connection from one room. Safe to call for
// unknown connections or rooms, and safe to call repeatedly.
func (h *Hub) Unsubscribe(connID, joinCode string) {
	code := strings.ToLower(strings.TrimSpace(joinCode))
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropMembership(connID, code)
	if cl, ok := h.clients[connID]; ok {
		delete(cl.rooms, code)
	}
}

// Disconnect removes the connection from every room and releases it.
// Idempotent, as transports may report a close more than once.
func (h *Hub) Disconnect(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cl, ok := h.clients[connID]
	if !ok {
		return
	}
	for code := range cl.rooms {
		h.dropMembership(connID, code)
	}
	delete(h.clients, connID)
	if !cl.closed {
		cl.closed = true
		close(cl.send)
	}
}

// dropMembership must run with h.mu held.
func (h *Hub) dropMembership(connID, code string) {
	room, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(room, connID)
	if len(room) == 0 {
		delete(h.rooms, code)
	}
}

// Publish delivers the canonical view to every member of the room.
// Slow consumers whose queues are full miss the update and are expected
// to resynchronize through the read path; a dropped delivery is logged
// and swallowed, never surfaced to the command caller.
func (h *Hub) Publish(joinCode string, view *gamedto.SessionView) {
	code := strings.ToLower(strings.TrimSpace(joinCode))
	raw, err := json.Marshal(pushEvent{T: "game:update", Game: view})
	if err != nil {
		obslog.L().Error("room_publish_marshal_error", zap.String("join_code", code), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	room := h.rooms[code]
	for id, cl := range room {
		if cl.closed {
			continue
		}
		select {
		case cl.send <- raw:
		default:
			obslog.L().Warn("room_publish_drop",
				zap.String("join_code", code),
				zap.String("conn_id", id),
			)
		}
	}
}

// RoomSize reports current membership, mainly for tests and metrics logs.
func (h *Hub) RoomSize(joinCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[strings.ToLower(strings.TrimSpace(joinCode))])
}
