package client

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/gorilla/websocket"
)

// PushMessage is the envelope delivered by the push channel, covering
// both invitation-status updates and milestone refresh signals.
type PushMessage struct {
	Type    string `json:"type"`
	GroupID string `json:"groupId,omitempty"`
	PostID  string `json:"postId,omitempty"`
	Status  string `json:"status,omitempty"`
}

// PushHandler consumes push messages. Handlers run on the subscriber's
// read loop and must not block.
type PushHandler func(msg PushMessage)

// PushSubscriber maintains one websocket subscription to the tracking
// service's push endpoint for a group.
type PushSubscriber struct {
	wsURL   string
	token   string
	groupID string
	handler PushHandler

	conn *websocket.Conn
}

// NewPushSubscriber builds an unconnected subscriber. wsURL is the
// ws:// or wss:// endpoint.
func NewPushSubscriber(wsURL, token, groupID string, handler PushHandler) *PushSubscriber {
	return &PushSubscriber{
		wsURL:   wsURL,
		token:   token,
		groupID: groupID,
		handler: handler,
	}
}

// Connect dials the push endpoint and starts delivering messages to the
// handler until the connection drops or ctx is cancelled.
func (s *PushSubscriber) Connect(ctx context.Context) error {
	query := url.Values{}
	query.Set("token", s.token)
	query.Set("group_id", s.groupID)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	s.conn = conn

	go s.readLoop(ctx)
	return nil
}

func (s *PushSubscriber) readLoop(ctx context.Context) {
	done := make(chan struct{})
	defer close(done)
	defer s.conn.Close()

	// The watcher exits with the read loop, so a connection dropped by
	// the server does not strand it on ctx.Done().
	go func() {
		select {
		case <-ctx.Done():
			s.conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg PushMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if s.handler != nil {
			s.handler(msg)
		}
	}
}

// Close tears the subscription down.
func (s *PushSubscriber) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}
