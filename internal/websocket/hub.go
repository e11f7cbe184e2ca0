package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/services"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenParser resolves a socket token to a user ID.
type TokenParser interface {
	ParseToken(token string) (int64, error)
}

// Source delivers the raw messages published on a channel until ctx ends.
type Source interface {
	Subscribe(ctx context.Context, channel string) <-chan []byte
}

// Hub fans progress events for a user out to every socket that user has open.
// One subscription per user is held while at least one socket is connected.
type Hub struct {
	mu          sync.RWMutex
	connections map[int64][]*websocket.Conn
	cancelFuncs map[int64]context.CancelFunc
	source      Source
	tokens      TokenParser
	log         *logger.Logger
}

func NewHub(source Source, tokens TokenParser, log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[int64][]*websocket.Conn),
		cancelFuncs: make(map[int64]context.CancelFunc),
		source:      source,
		tokens:      tokens,
		log:         log.With("component", "ws"),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	userID, err := h.tokens.ParseToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "user_id", userID, "error", err)
		return
	}

	h.registerConnection(userID, conn)

	go func() {
		defer h.unregisterConnection(userID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Connections reports how many sockets userID has open.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[userID])
}

func (h *Hub) registerConnection(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[userID] = append(h.connections[userID], conn)

	if len(h.connections[userID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[userID] = cancel
		go h.forward(ctx, userID)
	}

	h.log.Debug("websocket connected", "user_id", userID, "total", len(h.connections[userID]))
}

func (h *Hub) unregisterConnection(userID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[userID]
	for i, c := range conns {
		if c == conn {
			h.connections[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
			delete(h.cancelFuncs, userID)
		}
	}

	h.log.Debug("websocket disconnected", "user_id", userID)
}

func (h *Hub) forward(ctx context.Context, userID int64) {
	ch := h.source.Subscribe(ctx, services.UserChannel(userID))
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, msg)
		}
	}
}

// broadcast runs only on the user's forward goroutine, so each socket has a single writer.
func (h *Hub) broadcast(userID int64, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[userID] {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("websocket write failed", "user_id", userID, "error", err)
		}
	}
}

// Close cancels every subscription and closes every socket.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, id)
	}
	for id, conns := range h.connections {
		for _, c := range conns {
			c.Close()
		}
		delete(h.connections, id)
	}
}

// RedisSource reads a Redis pub/sub channel.
type RedisSource struct {
	client *redis.Client
}

func NewRedisSource(client *redis.Client) *RedisSource {
	return &RedisSource{client: client}
}

func (s *RedisSource) Subscribe(ctx context.Context, channel string) <-chan []byte {
	out := make(chan []byte)
	pubsub := s.client.Subscribe(ctx, channel)
	go func() {
		defer close(out)
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
