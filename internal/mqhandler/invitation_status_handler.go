package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"teammy/internal/mq"
	"teammy/internal/push"
	"teammy/pkg/util"
)

// InvitationStatusHandler relays invitation.status.changed events to the
// push hub as the {type, postId, status} frames recruitment views expect.
type InvitationStatusHandler struct {
	hub     *push.Hub
	deduper *util.Deduper
	logger  *zap.Logger
}

func NewInvitationStatusHandler(hub *push.Hub, deduper *util.Deduper, logger *zap.Logger) *InvitationStatusHandler {
	return &InvitationStatusHandler{hub: hub, deduper: deduper, logger: logger}
}

func (h *InvitationStatusHandler) Handle(ctx context.Context, raw json.RawMessage) error {
	var p mq.InvitationStatusPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Failed to unmarshal invitation status payload", zap.Error(err))
		return err
	}

	key := fmt.Sprintf("%s:%s", p.PostID, p.Status)
	if !h.deduper.AcquireOnce(ctx, "invitation_status", key) {
		return nil
	}

	h.logger.Info("Relaying invitation status change",
		zap.String("post_id", p.PostID),
		zap.String("status", p.Status),
	)

	h.hub.Broadcast(p.GroupID, push.Message{
		Type:   "invitation_status",
		PostID: p.PostID,
		Status: p.Status,
	})
	return nil
}
