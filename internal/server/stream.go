package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"MarketDash/internal/model"
	"MarketDash/internal/notify"
	"MarketDash/internal/store"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	clientBuffer = 64
)

// Event is one message pushed to WebSocket clients. The first message on a
// connection has kind "snapshot" and carries the whole snapshot.
type Event struct {
	Kind  string `json:"kind"`
	Value any    `json:"value"`
}

// Stream pushes every applied update to connected WebSocket clients.
type Stream struct {
	store    *store.Store
	logger   *logrus.Entry
	upgrader websocket.Upgrader
	subs     []notify.Subscription

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

func NewStream(st *store.Store, logger *logrus.Entry) *Stream {
	s := &Stream{
		store:  st,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
	s.subs = st.Hub().SubscribeAll(s.publish)
	return s
}

// publish runs inside the store's update; it never blocks on a client.
func (s *Stream) publish(kind model.Kind, value any) {
	msg, err := json.Marshal(Event{Kind: kind.String(), Value: value})
	if err != nil {
		s.logger.WithError(err).WithField("kind", kind).Error("encode stream event")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			s.logger.Warn("stream client too slow, disconnecting")
			delete(s.clients, c)
			c.close()
		}
	}
}

// Handle upgrades the request and streams events until the client leaves.
func (s *Stream) Handle(ctx *gin.Context) {
	conn, err := s.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	if !s.register(c) {
		conn.Close()
		return
	}
	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Stream) register(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	msg, err := json.Marshal(Event{Kind: "snapshot", Value: s.store.Snapshot()})
	if err != nil {
		s.logger.WithError(err).Error("encode snapshot")
		return false
	}
	c.send <- msg
	s.clients[c] = struct{}{}
	return true
}

func (s *Stream) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		c.close()
	}
}

// readLoop drains control frames so pongs and close frames are processed.
func (s *Stream) readLoop(c *client) {
	defer s.unregister(c)
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Stream) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Clients returns the number of connected clients.
func (s *Stream) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close unsubscribes from the store and disconnects every client.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, sub := range s.subs {
		sub.Cancel()
	}
	for c := range s.clients {
		delete(s.clients, c)
		c.close()
	}
}
