package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"teammy/internal/repository"
	"teammy/internal/service"
)

// respondError maps service errors onto HTTP statuses. Validation problems
// and missing rows carry their message to the caller; everything else is a
// generic 500 so internals stay out of responses.
func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrMilestoneNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "milestone not found"})
	case errors.Is(err, repository.ErrNotGroupMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
