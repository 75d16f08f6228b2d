package service

import (
	"context"

	"go.uber.org/zap"

	"teammy/internal/model"
	"teammy/internal/mq"
	"teammy/internal/repository"
	"teammy/pkg/metrics"
)

// OverdueService backs the resolve-overdue workflow: the per-milestone
// snapshot plus its two mutually exclusive remedies, extending the target
// date or moving the incomplete items elsewhere.
type OverdueService struct {
	repo        *repository.MilestoneRepository
	backlogRepo *repository.BacklogRepository
	publisher   EventPublisher
	logger      *zap.Logger
}

func NewOverdueService(
	repo *repository.MilestoneRepository,
	backlogRepo *repository.BacklogRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *OverdueService {
	return &OverdueService{
		repo:        repo,
		backlogRepo: backlogRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// Snapshot computes the overdue-actions view for one milestone. It is
// recomputed on every call; staleness across a preceding extend or move is
// not possible.
func (s *OverdueService) Snapshot(ctx context.Context, groupID string, milestoneID int) (*model.OverdueActions, error) {
	m, err := s.repo.FindByID(ctx, groupID, milestoneID)
	if err != nil {
		return nil, err
	}

	items, err := s.backlogRepo.ListByMilestone(ctx, groupID, milestoneID)
	if err != nil {
		return nil, err
	}

	return BuildOverdueActions(m, items, model.Today()), nil
}

// BuildOverdueActions derives the snapshot from a milestone and its items.
// Exposed for the scanner worker, which reuses the same derivation.
func BuildOverdueActions(m *model.Milestone, items []model.BacklogItem, today model.DateOnly) *model.OverdueActions {
	snap := &model.OverdueActions{
		MilestoneID:         m.ID,
		TargetDate:          m.TargetDate,
		TotalItems:          len(items),
		OverdueBacklogItems: []model.OverdueBacklogItem{},
	}

	for _, item := range items {
		if item.Complete() {
			snap.CompletedItems++
			continue
		}
		snap.IncompleteItems++

		if !item.DueDate.IsZero() && item.DueDate.Before(today) {
			snap.OverdueItems++
			snap.OverdueBacklogItems = append(snap.OverdueBacklogItems, model.OverdueBacklogItem{
				ID:         item.ID,
				Title:      item.Title,
				Status:     item.Status,
				ColumnName: item.ColumnName,
				DueDate:    item.DueDate,
			})
		}

		// Items due after the milestone itself signal a planning mismatch.
		if !m.TargetDate.IsZero() && !item.DueDate.IsZero() && m.TargetDate.Before(item.DueDate) {
			snap.TasksDueAfterMilestone++
		}
	}

	snap.IsOverdue = model.ComputeOverdue(m.TargetDate, snap.CompletedItems, snap.TotalItems, today)
	return snap
}

// Extend moves the milestone's target date forward. The new date must not be
// before the start of today.
func (s *OverdueService) Extend(ctx context.Context, groupID string, milestoneID int, req *model.ExtendRequest) error {
	d, err := parseFutureDate("newTargetDate", req.NewTargetDate)
	if err != nil {
		return err
	}

	if err := s.repo.ExtendTargetDate(ctx, groupID, milestoneID, d.Time); err != nil {
		return err
	}

	metrics.IncrementMilestoneMutation("extend")
	metrics.IncrementOverdueResolution("extend")
	s.publishEvent(mq.RoutingKeyMilestoneExtended, mq.MilestoneExtendedPayload{
		GroupID:       groupID,
		MilestoneID:   milestoneID,
		NewTargetDate: d.String(),
	})
	return nil
}

// MoveResult reports where the incomplete items went.
type MoveResult struct {
	TargetMilestoneID int  `json:"targetMilestoneId"`
	MovedCount        int  `json:"movedCount"`
	CreatedNew        bool `json:"createdNew"`
}

// MoveTasks applies the move remedy. The request is a tagged union: an
// existing destination milestone (never the source itself) or an inline new
// one. Reassignment is transactional in the repository.
func (s *OverdueService) MoveTasks(ctx context.Context, groupID string, milestoneID int, req *model.MoveTasksRequest) (*MoveResult, error) {
	if _, err := s.repo.FindByID(ctx, groupID, milestoneID); err != nil {
		return nil, err
	}

	if !req.CreateNewMilestone {
		if req.TargetMilestoneID == nil {
			return nil, validationError("targetMilestoneId is required")
		}
		targetID := *req.TargetMilestoneID
		if targetID == milestoneID {
			return nil, validationError("cannot move items to the same milestone")
		}
		if _, err := s.repo.FindByID(ctx, groupID, targetID); err != nil {
			return nil, err
		}

		moved, err := s.repo.MoveIncompleteItems(ctx, groupID, milestoneID, targetID)
		if err != nil {
			return nil, err
		}

		metrics.IncrementMilestoneMutation("move")
		metrics.IncrementOverdueResolution("move_existing")
		s.publishEvent(mq.RoutingKeyMilestoneItemsMoved, mq.ItemsMovedPayload{
			GroupID:           groupID,
			SourceMilestoneID: milestoneID,
			TargetMilestoneID: targetID,
			MovedCount:        moved,
		})
		return &MoveResult{TargetMilestoneID: targetID, MovedCount: moved}, nil
	}

	name := req.NewMilestoneName
	if name == "" {
		return nil, validationError("newMilestoneName is required")
	}
	d, err := parseFutureDate("newMilestoneTargetDate", req.NewMilestoneTargetDate)
	if err != nil {
		return nil, err
	}

	dest := &model.Milestone{
		GroupID:     groupID,
		Name:        name,
		Description: req.NewMilestoneDescription,
		TargetDate:  d,
		Status:      model.MilestoneStatusPlanned,
	}

	newID, moved, err := s.repo.CreateAndMoveIncompleteItems(ctx, groupID, milestoneID, dest)
	if err != nil {
		return nil, err
	}

	metrics.IncrementMilestoneMutation("move")
	metrics.IncrementOverdueResolution("move_new")
	s.publishEvent(mq.RoutingKeyMilestoneItemsMoved, mq.ItemsMovedPayload{
		GroupID:           groupID,
		SourceMilestoneID: milestoneID,
		TargetMilestoneID: newID,
		MovedCount:        moved,
		CreatedNew:        true,
	})
	return &MoveResult{TargetMilestoneID: newID, MovedCount: moved, CreatedNew: true}, nil
}

func (s *OverdueService) publishEvent(routingKey string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
