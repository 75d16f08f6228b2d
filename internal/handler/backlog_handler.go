package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"teammy/internal/repository"
)

type BacklogHandler struct {
	backlog *repository.BacklogRepository
	logger  *zap.Logger
}

func NewBacklogHandler(backlog *repository.BacklogRepository, logger *zap.Logger) *BacklogHandler {
	return &BacklogHandler{backlog: backlog, logger: logger}
}

// List handles GET /groups/:groupId/backlog
func (h *BacklogHandler) List(c *gin.Context) {
	groupID := c.Param("groupId")

	items, err := h.backlog.ListByGroup(c.Request.Context(), groupID)
	if err != nil {
		h.logger.Error("List backlog failed", zap.String("group_id", groupID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch backlog"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}
