package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"teammy/internal/model"
	"teammy/internal/repository"
	"teammy/internal/session"
)

// RoleResolver resolves a user's role inside a group, preferring the
// session-scoped cache over the membership table.
type RoleResolver struct {
	userRepo *repository.UserRepository
	sessions *session.Store
	logger   *zap.Logger
}

func NewRoleResolver(userRepo *repository.UserRepository, sessions *session.Store, logger *zap.Logger) *RoleResolver {
	return &RoleResolver{userRepo: userRepo, sessions: sessions, logger: logger}
}

func (r *RoleResolver) resolve(c *gin.Context, userID int, groupID string) (string, error) {
	ctx := c.Request.Context()

	if role, err := r.sessions.CachedRole(ctx, userID, groupID); err == nil && role != "" {
		return role, nil
	}

	role, err := r.userRepo.GetMemberRole(ctx, groupID, userID)
	if err != nil {
		return "", err
	}

	if err := r.sessions.CacheRole(ctx, userID, groupID, role); err != nil {
		r.logger.Warn("Failed to cache group role", zap.Int("user_id", userID), zap.Error(err))
	}
	return role, nil
}

// RequireMembership ensures the caller belongs to the group in the path.
func (r *RoleResolver) RequireMembership() gin.HandlerFunc {
	return r.require("")
}

// RequireLeader restricts a route to group leaders.
func (r *RoleResolver) RequireLeader() gin.HandlerFunc {
	return r.require(model.RoleLeader)
}

func (r *RoleResolver) require(neededRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		groupID := c.Param("groupId")
		role, err := r.resolve(c, userID.(int), groupID)
		if err != nil {
			if errors.Is(err, repository.ErrNotGroupMember) {
				c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve group role"})
			}
			c.Abort()
			return
		}

		if neededRole != "" && role != neededRole {
			c.JSON(http.StatusForbidden, gin.H{"error": "leader role required"})
			c.Abort()
			return
		}

		c.Set("group_role", role)
		c.Next()
	}
}
