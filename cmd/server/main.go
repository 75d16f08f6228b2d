package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"teammy/internal/config"
	"teammy/internal/db"
	"teammy/internal/handler"
	"teammy/internal/httpserver"
	"teammy/internal/mqhandler"
	"teammy/internal/push"
	"teammy/internal/redisclient"
	"teammy/internal/repository"
	"teammy/internal/service"
	"teammy/internal/session"
	"teammy/pkg/logger"
	"teammy/pkg/mq"
	"teammy/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting tracking service...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("mq_url", cfg.MQ.URL),
		zap.String("port", cfg.Server.Port),
	)

	// DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	// Redis
	rdb := redisclient.New(cfg.Redis)
	defer rdb.Close()

	// MQ publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	milestoneRepo := repository.NewMilestoneRepository(dbConn, log)
	backlogRepo := repository.NewBacklogRepository(dbConn, log)
	userRepo := repository.NewUserRepository(dbConn, log)

	// Session store
	sessions := session.NewStore(rdb, 24*time.Hour)

	// Services
	milestoneService := service.NewMilestoneService(milestoneRepo, backlogRepo, publisher, log)
	overdueService := service.NewOverdueService(milestoneRepo, backlogRepo, publisher, log)
	timelineService := service.NewTimelineService(milestoneRepo, log)
	authService := service.NewAuthService(userRepo, sessions, cfg.JWT.Secret, cfg.JWT.TokenTTL())

	// Push hub
	hub := push.NewHub(log)
	go hub.Run()

	// MQ consumers bridging bus events to the push hub
	deduper := util.NewDeduper(rdb, 10*time.Minute)
	bridge := mqhandler.NewPushBridgeHandler(hub, deduper, log)
	startConsumer(cfg.MQ.URL, "push.milestone.q", "milestone.*", bridge.Handle, log)

	invitations := mqhandler.NewInvitationStatusHandler(hub, deduper, log)
	startConsumer(cfg.MQ.URL, "push.invitation.q", "invitation.#", invitations.Handle, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	milestoneHandler := handler.NewMilestoneHandler(milestoneService, log)
	trackingHandler := handler.NewTrackingHandler(overdueService, timelineService, log)
	backlogHandler := handler.NewBacklogHandler(backlogRepo, log)
	wsHandler := handler.NewWSHandler(hub, cfg.JWT.Secret, log)
	roles := httpserver.NewRoleResolver(userRepo, sessions, log)

	// Router
	router := httpserver.NewRouter(
		authHandler,
		milestoneHandler,
		trackingHandler,
		backlogHandler,
		wsHandler,
		roles,
		cfg.JWT.Secret,
		publisher.IsConnected,
	)

	srv := &http.Server{
		Addr:    cfg.Server.Port,
		Handler: router.Engine,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down tracking service gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("Tracking service shutdown complete")
}

func startConsumer(url, queue, routingKey string, h mq.MessageHandler, log *zap.Logger) {
	consumer, err := mq.NewConsumer(url, queue, routingKey, log)
	if err != nil {
		log.Fatal("Failed to init MQ consumer",
			zap.String("queue", queue),
			zap.Error(err),
		)
	}
	consumer.SetHandler(h)
	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Error("Consumer stopped",
				zap.String("queue", queue),
				zap.Error(err),
			)
		}
	}()
}
