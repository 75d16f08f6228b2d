package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"teammy/internal/config"
	"teammy/internal/db"
	"teammy/internal/mq"
	"teammy/internal/repository"
	"teammy/pkg/logger"
	pkgmq "teammy/pkg/mq"
)

// The worker scans for milestones past their target date with incomplete
// items and publishes milestone.overdue events. The tracking server bridges
// those onto the push channel so open views surface the state change.
func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting overdue scanner worker...",
		zap.String("db_host", cfg.DB.Host),
		zap.String("mq_url", cfg.MQ.URL),
	)

	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()

	publisher, err := pkgmq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	milestoneRepo := repository.NewMilestoneRepository(dbConn, log)
	scanner := newOverdueScanner(milestoneRepo, publisher, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()

		// Run immediately on startup.
		scanner.scan(ctx)

		for {
			select {
			case <-ctx.Done():
				log.Info("Overdue scanner stopped")
				return
			case <-ticker.C:
				scanner.scan(ctx)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down overdue scanner worker...")
	cancel()
}

type overdueScanner struct {
	repo      *repository.MilestoneRepository
	publisher *pkgmq.Publisher
	logger    *zap.Logger
}

func newOverdueScanner(repo *repository.MilestoneRepository, publisher *pkgmq.Publisher, logger *zap.Logger) *overdueScanner {
	return &overdueScanner{repo: repo, publisher: publisher, logger: logger}
}

func (s *overdueScanner) scan(ctx context.Context) {
	s.logger.Info("Checking for overdue milestones...")

	milestones, err := s.repo.ListOverdue(ctx)
	if err != nil {
		s.logger.Error("Failed to list overdue milestones", zap.Error(err))
		return
	}

	if len(milestones) == 0 {
		s.logger.Debug("No overdue milestones found")
		return
	}

	for _, m := range milestones {
		payload := mq.MilestoneOverduePayload{
			GroupID:         m.GroupID,
			MilestoneID:     m.ID,
			Name:            m.Name,
			TargetDate:      m.TargetDate.String(),
			IncompleteItems: m.TotalItems - m.CompletedItems,
		}
		if err := s.publisher.Publish(mq.RoutingKeyMilestoneOverdue, payload); err != nil {
			s.logger.Error("Failed to publish milestone.overdue event",
				zap.Int("milestone_id", m.ID),
				zap.Error(err),
			)
			continue
		}
		s.logger.Info("Published milestone.overdue event",
			zap.Int("milestone_id", m.ID),
			zap.String("group_id", m.GroupID),
		)
	}

	s.logger.Info("Overdue check completed", zap.Int("overdue_count", len(milestones)))
}
