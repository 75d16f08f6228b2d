package push

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"teammy/pkg/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Message is a push frame sent to connected group members, e.g.
// {"type":"invitation_status","postId":"...","status":"accepted"} or a
// milestone refresh hint.
type Message struct {
	Type    string `json:"type"`
	GroupID string `json:"groupId,omitempty"`
	PostID  string `json:"postId,omitempty"`
	Status  string `json:"status,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	userID  int
	groupID string
}

// Hub fans events out to websocket clients, scoped by group.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastReq
	logger     *zap.Logger
	mu         sync.RWMutex
}

type broadcastReq struct {
	groupID string
	data    []byte
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		broadcast:  make(chan broadcastReq, 256),
		logger:     logger,
	}
}

// Run processes register/unregister/broadcast requests until the process
// exits. Call in a goroutine.
func (h *Hub) Run() {
	h.logger.Info("Push hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			metrics.PushClientsConnected.Set(float64(count))
			h.logger.Info("Push client registered",
				zap.Int("user_id", client.userID),
				zap.String("group_id", client.groupID),
				zap.Int("total_clients", count),
			)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			metrics.PushClientsConnected.Set(float64(count))
			h.logger.Info("Push client unregistered",
				zap.Int("user_id", client.userID),
				zap.Int("total_clients", count),
			)

		case req := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if client.groupID != req.groupID {
					continue
				}
				select {
				case client.send <- req.data:
				default:
					// Slow consumer: drop the frame rather than block the hub.
					h.logger.Warn("Push client send buffer full, dropping message",
						zap.Int("user_id", client.userID),
					)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast sends a message to every client subscribed to a group.
func (h *Hub) Broadcast(groupID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal push message", zap.Error(err))
		return
	}
	h.broadcast <- broadcastReq{groupID: groupID, data: data}
}

// Register attaches a new websocket connection to the hub and starts its
// read/write pumps.
func (h *Hub) Register(conn *websocket.Conn, userID int, groupID string) {
	client := &Client{
		hub:     h,
		conn:    conn,
		send:    make(chan []byte, 64),
		userID:  userID,
		groupID: groupID,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(8 * 1024)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		// Clients only listen; inbound frames just keep the connection alive.
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
