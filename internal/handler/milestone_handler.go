package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"teammy/internal/model"
	"teammy/internal/service"
	"teammy/pkg/logger"
)

type MilestoneHandler struct {
	milestones *service.MilestoneService
	logger     *zap.Logger
}

func NewMilestoneHandler(milestones *service.MilestoneService, logger *zap.Logger) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones, logger: logger}
}

func milestoneID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("milestoneId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone id"})
		return 0, false
	}
	return id, true
}

// List handles GET /groups/:groupId/milestones
func (h *MilestoneHandler) List(c *gin.Context) {
	groupID := c.Param("groupId")

	milestones, err := h.milestones.List(c.Request.Context(), groupID)
	if err != nil {
		h.logger.Error("List milestones failed", zap.String("group_id", groupID), zap.Error(err))
		respondError(c, err, "failed to fetch milestones")
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// Get handles GET /groups/:groupId/milestones/:milestoneId
func (h *MilestoneHandler) Get(c *gin.Context) {
	groupID := c.Param("groupId")
	id, ok := milestoneID(c)
	if !ok {
		return
	}

	m, err := h.milestones.Get(c.Request.Context(), groupID, id)
	if err != nil {
		respondError(c, err, "failed to fetch milestone")
		return
	}

	c.JSON(http.StatusOK, m)
}

// Create handles POST /groups/:groupId/milestones
func (h *MilestoneHandler) Create(c *gin.Context) {
	groupID := c.Param("groupId")

	var req model.MilestoneCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	m, err := h.milestones.Create(c.Request.Context(), groupID, &req)
	if err != nil {
		h.logger.Warn("Create milestone rejected",
			zap.String("group_id", groupID),
			zap.Error(err),
		)
		respondError(c, err, "failed to create milestone")
		return
	}

	logger.WithRequestID(c.Request.Context(), h.logger).Info("Milestone created",
		zap.String("group_id", groupID),
		zap.Int("milestone_id", m.ID),
		zap.String("name", m.Name),
	)
	c.JSON(http.StatusCreated, m)
}

// Update handles PUT /groups/:groupId/milestones/:milestoneId
func (h *MilestoneHandler) Update(c *gin.Context) {
	groupID := c.Param("groupId")
	id, ok := milestoneID(c)
	if !ok {
		return
	}

	var req model.MilestoneUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	m, err := h.milestones.Update(c.Request.Context(), groupID, id, &req)
	if err != nil {
		respondError(c, err, "failed to update milestone")
		return
	}

	h.logger.Info("Milestone updated",
		zap.String("group_id", groupID),
		zap.Int("milestone_id", id),
	)
	c.JSON(http.StatusOK, m)
}

// Delete handles DELETE /groups/:groupId/milestones/:milestoneId
func (h *MilestoneHandler) Delete(c *gin.Context) {
	groupID := c.Param("groupId")
	id, ok := milestoneID(c)
	if !ok {
		return
	}

	if err := h.milestones.Delete(c.Request.Context(), groupID, id); err != nil {
		respondError(c, err, "failed to delete milestone")
		return
	}

	h.logger.Info("Milestone deleted",
		zap.String("group_id", groupID),
		zap.Int("milestone_id", id),
	)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// AssignItems handles POST /groups/:groupId/milestones/:milestoneId/assign-items
func (h *MilestoneHandler) AssignItems(c *gin.Context) {
	groupID := c.Param("groupId")
	id, ok := milestoneID(c)
	if !ok {
		return
	}

	var req model.AssignItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "backlogItemIds is required"})
		return
	}

	if err := h.milestones.AssignItems(c.Request.Context(), groupID, id, req.BacklogItemIDs); err != nil {
		respondError(c, err, "failed to assign backlog items")
		return
	}

	h.logger.Info("Backlog items assigned",
		zap.String("group_id", groupID),
		zap.Int("milestone_id", id),
		zap.Int("count", len(req.BacklogItemIDs)),
	)
	c.JSON(http.StatusOK, gin.H{"status": "assigned", "count": len(req.BacklogItemIDs)})
}

// RemoveItem handles DELETE /groups/:groupId/milestones/:milestoneId/items/:backlogItemId
func (h *MilestoneHandler) RemoveItem(c *gin.Context) {
	groupID := c.Param("groupId")
	id, ok := milestoneID(c)
	if !ok {
		return
	}
	itemID := c.Param("backlogItemId")

	if err := h.milestones.RemoveItem(c.Request.Context(), groupID, id, itemID); err != nil {
		respondError(c, err, "failed to remove backlog item")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
