package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"teammy/internal/model"
	"teammy/internal/service"
)

// TrackingHandler serves the overdue-resolution workflow and the timeline
// read model under /groups/:groupId/tracking.
type TrackingHandler struct {
	overdue  *service.OverdueService
	timeline *service.TimelineService
	logger   *zap.Logger
}

func NewTrackingHandler(overdue *service.OverdueService, timeline *service.TimelineService, logger *zap.Logger) *TrackingHandler {
	return &TrackingHandler{overdue: overdue, timeline: timeline, logger: logger}
}

// OverdueActions handles GET .../tracking/milestones/:milestoneId/overdue-actions
func (h *TrackingHandler) OverdueActions(c *gin.Context) {
	groupID := c.Param("groupId")
	id, ok := milestoneID(c)
	if !ok {
		return
	}

	snapshot, err := h.overdue.Snapshot(c.Request.Context(), groupID, id)
	if err != nil {
		h.logger.Error("Overdue snapshot failed",
			zap.String("group_id", groupID),
			zap.Int("milestone_id", id),
			zap.Error(err),
		)
		respondError(c, err, "failed to compute overdue actions")
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

// Extend handles POST .../tracking/milestones/:milestoneId/extend
func (h *TrackingHandler) Extend(c *gin.Context) {
	groupID := c.Param("groupId")
	id, ok := milestoneID(c)
	if !ok {
		return
	}

	var req model.ExtendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "newTargetDate is required"})
		return
	}

	if err := h.overdue.Extend(c.Request.Context(), groupID, id, &req); err != nil {
		respondError(c, err, "failed to extend milestone")
		return
	}

	h.logger.Info("Milestone extended",
		zap.String("group_id", groupID),
		zap.Int("milestone_id", id),
		zap.String("new_target_date", req.NewTargetDate),
	)
	c.JSON(http.StatusOK, gin.H{"status": "extended", "newTargetDate": req.NewTargetDate})
}

// MoveTasks handles POST .../tracking/milestones/:milestoneId/move-tasks
func (h *TrackingHandler) MoveTasks(c *gin.Context) {
	groupID := c.Param("groupId")
	id, ok := milestoneID(c)
	if !ok {
		return
	}

	var req model.MoveTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	result, err := h.overdue.MoveTasks(c.Request.Context(), groupID, id, &req)
	if err != nil {
		respondError(c, err, "failed to move incomplete items")
		return
	}

	h.logger.Info("Incomplete items moved",
		zap.String("group_id", groupID),
		zap.Int("source_milestone_id", id),
		zap.Int("target_milestone_id", result.TargetMilestoneID),
		zap.Int("moved", result.MovedCount),
	)
	c.JSON(http.StatusOK, result)
}

// Timeline handles GET .../tracking/timeline?startDate=&endDate=
func (h *TrackingHandler) Timeline(c *gin.Context) {
	groupID := c.Param("groupId")

	milestones, err := h.timeline.Window(
		c.Request.Context(),
		groupID,
		c.Query("startDate"),
		c.Query("endDate"),
	)
	if err != nil {
		respondError(c, err, "failed to fetch timeline")
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}
