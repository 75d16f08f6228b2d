package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"teammy/internal/handler"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *handler.AuthHandler,
	milestoneHandler *handler.MilestoneHandler,
	trackingHandler *handler.TrackingHandler,
	backlogHandler *handler.BacklogHandler,
	wsHandler *handler.WSHandler,
	roles *RoleResolver,
	jwtSecret string,
	mqReady func() bool,
) *Router {
	r := gin.Default()
	r.Use(RequestIDMiddleware())
	r.Use(MetricsMiddleware())

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/healthz", func(c *gin.Context) {
		if mqReady != nil && !mqReady() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "mq": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", wsHandler.Serve)

	// Protected
	auth := r.Group("/")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.POST("/logout", authHandler.Logout)

		group := auth.Group("/groups/:groupId")
		{
			read := group.Group("")
			read.Use(roles.RequireMembership())
			{
				read.GET("/milestones", milestoneHandler.List)
				read.GET("/milestones/:milestoneId", milestoneHandler.Get)
				read.GET("/backlog", backlogHandler.List)
				read.GET("/tracking/milestones/:milestoneId/overdue-actions", trackingHandler.OverdueActions)
				read.GET("/tracking/timeline", trackingHandler.Timeline)
			}

			// Mutations stay leader-only.
			write := group.Group("")
			write.Use(roles.RequireLeader())
			{
				write.POST("/milestones", milestoneHandler.Create)
				write.PUT("/milestones/:milestoneId", milestoneHandler.Update)
				write.DELETE("/milestones/:milestoneId", milestoneHandler.Delete)
				write.POST("/milestones/:milestoneId/assign-items", milestoneHandler.AssignItems)
				write.DELETE("/milestones/:milestoneId/items/:backlogItemId", milestoneHandler.RemoveItem)
				write.POST("/tracking/milestones/:milestoneId/extend", trackingHandler.Extend)
				write.POST("/tracking/milestones/:milestoneId/move-tasks", trackingHandler.MoveTasks)
			}
		}
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
