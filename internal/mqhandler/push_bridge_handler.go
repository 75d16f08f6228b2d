package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"

	"go.uber.org/zap"

	"teammy/internal/push"
	"teammy/pkg/util"
)

// PushBridgeHandler forwards milestone events from the bus to connected
// websocket clients so open views can refresh without polling.
type PushBridgeHandler struct {
	hub     *push.Hub
	deduper *util.Deduper
	logger  *zap.Logger
}

func NewPushBridgeHandler(hub *push.Hub, deduper *util.Deduper, logger *zap.Logger) *PushBridgeHandler {
	return &PushBridgeHandler{hub: hub, deduper: deduper, logger: logger}
}

// milestoneEvent is the loose shape shared by every milestone.* payload.
type milestoneEvent struct {
	GroupID           string `json:"group_id"`
	MilestoneID       int    `json:"milestone_id"`
	SourceMilestoneID int    `json:"source_milestone_id"`
}

// Handle handles any milestone.* payload and emits a refresh hint for the
// affected group.
func (h *PushBridgeHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p milestoneEvent
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal milestone payload", zap.Error(err))
		return err
	}

	id := p.MilestoneID
	if id == 0 {
		id = p.SourceMilestoneID
	}

	// Key on the full body so redeliveries dedupe but distinct events pass.
	sum := fnv.New64a()
	sum.Write(raw)
	key := fmt.Sprintf("%s:%d:%x", p.GroupID, id, sum.Sum64())
	if !h.deduper.AcquireOnce(ctx, "push_bridge", key) {
		h.logger.Debug("Duplicate milestone event dropped", zap.String("key", key))
		return nil
	}

	h.hub.Broadcast(p.GroupID, push.Message{
		Type:    "milestone_refresh",
		GroupID: p.GroupID,
		Payload: map[string]any{"milestoneId": id},
	})
	return nil
}
