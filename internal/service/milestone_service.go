package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"teammy/internal/model"
	"teammy/internal/mq"
	"teammy/internal/repository"
	"teammy/pkg/metrics"
)

// EventPublisher is the slice of the MQ publisher the services need.
type EventPublisher interface {
	Publish(routingKey string, payload any) error
}

type MilestoneService struct {
	repo        *repository.MilestoneRepository
	backlogRepo *repository.BacklogRepository
	publisher   EventPublisher
	logger      *zap.Logger
}

func NewMilestoneService(
	repo *repository.MilestoneRepository,
	backlogRepo *repository.BacklogRepository,
	publisher EventPublisher,
	logger *zap.Logger,
) *MilestoneService {
	return &MilestoneService{
		repo:        repo,
		backlogRepo: backlogRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// parseFutureDate enforces the shared "no earlier than the start of today"
// rule for every date written through this service.
func parseFutureDate(field, value string) (model.DateOnly, error) {
	d, ok := model.ParseDate(value)
	if !ok {
		return model.DateOnly{}, validationError("%s must be a YYYY-MM-DD date", field)
	}
	if d.Before(model.Today()) {
		return model.DateOnly{}, validationError("%s cannot be in the past", field)
	}
	return d, nil
}

func (s *MilestoneService) List(ctx context.Context, groupID string) ([]model.Milestone, error) {
	return s.repo.ListByGroup(ctx, groupID)
}

// Get returns one milestone with its backlog items embedded.
func (s *MilestoneService) Get(ctx context.Context, groupID string, id int) (*model.Milestone, error) {
	m, err := s.repo.FindByID(ctx, groupID, id)
	if err != nil {
		return nil, err
	}

	items, err := s.backlogRepo.ListByMilestone(ctx, groupID, id)
	if err != nil {
		return nil, err
	}
	m.Items = items
	return m, nil
}

func (s *MilestoneService) Create(ctx context.Context, groupID string, req *model.MilestoneCreate) (*model.Milestone, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}

	m := &model.Milestone{
		GroupID:     groupID,
		Name:        name,
		Description: req.Description,
		Status:      model.MilestoneStatusPlanned,
	}

	if req.TargetDate != "" {
		d, err := parseFutureDate("targetDate", req.TargetDate)
		if err != nil {
			return nil, err
		}
		m.TargetDate = d
	}

	id, err := s.repo.Insert(ctx, m)
	if err != nil {
		return nil, err
	}
	m.ID = id

	metrics.IncrementMilestoneMutation("create")
	s.publishEvent(mq.RoutingKeyMilestoneCreated, mq.MilestonePayload{
		GroupID:     groupID,
		MilestoneID: id,
		Name:        m.Name,
	})

	return s.repo.FindByID(ctx, groupID, id)
}

// applyMilestoneUpdate folds the fields present in req into m, validating
// each one. A supplied completedAt only sticks when the resulting status
// is done.
func applyMilestoneUpdate(m *model.Milestone, req *model.MilestoneUpdate) error {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return validationError("name is required")
		}
		m.Name = name
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.TargetDate != nil {
		if *req.TargetDate == "" {
			m.TargetDate = model.DateOnly{}
		} else {
			d, err := parseFutureDate("targetDate", *req.TargetDate)
			if err != nil {
				return err
			}
			m.TargetDate = d
		}
	}
	if req.Status != nil {
		if !model.ValidStatus(*req.Status) {
			return validationError("status must be planned, in_progress or done")
		}
		status := model.NormalizeStatus(*req.Status)
		if status == model.MilestoneStatusDone && m.Status != model.MilestoneStatusDone && m.CompletedAt == nil {
			now := time.Now()
			m.CompletedAt = &now
		}
		if status != model.MilestoneStatusDone {
			m.CompletedAt = nil
		}
		m.Status = status
	}
	if req.CompletedAt != nil && *req.CompletedAt != "" {
		if m.Status != model.MilestoneStatusDone {
			return validationError("completedAt requires status done")
		}
		d, ok := model.ParseDate(*req.CompletedAt)
		if !ok {
			return validationError("completedAt must be a YYYY-MM-DD date")
		}
		t := d.Time
		m.CompletedAt = &t
	}
	return nil
}

func (s *MilestoneService) Update(ctx context.Context, groupID string, id int, req *model.MilestoneUpdate) (*model.Milestone, error) {
	m, err := s.repo.FindByID(ctx, groupID, id)
	if err != nil {
		return nil, err
	}

	if err := applyMilestoneUpdate(m, req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, m); err != nil {
		return nil, err
	}

	metrics.IncrementMilestoneMutation("update")
	s.publishEvent(mq.RoutingKeyMilestoneUpdated, mq.MilestonePayload{
		GroupID:     groupID,
		MilestoneID: id,
		Name:        m.Name,
	})

	return s.repo.FindByID(ctx, groupID, id)
}

func (s *MilestoneService) Delete(ctx context.Context, groupID string, id int) error {
	if err := s.repo.Delete(ctx, groupID, id); err != nil {
		return err
	}

	metrics.IncrementMilestoneMutation("delete")
	s.publishEvent(mq.RoutingKeyMilestoneDeleted, mq.MilestonePayload{
		GroupID:     groupID,
		MilestoneID: id,
	})
	return nil
}

// AssignItems bulk-links backlog items. An empty selection is rejected
// before any storage call.
func (s *MilestoneService) AssignItems(ctx context.Context, groupID string, id int, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return validationError("at least one backlog item must be selected")
	}

	if _, err := s.repo.FindByID(ctx, groupID, id); err != nil {
		return err
	}

	if err := s.repo.AssignItems(ctx, groupID, id, itemIDs); err != nil {
		return err
	}

	metrics.IncrementMilestoneMutation("assign")
	s.publishEvent(mq.RoutingKeyMilestoneUpdated, mq.MilestonePayload{
		GroupID:     groupID,
		MilestoneID: id,
	})
	return nil
}

func (s *MilestoneService) RemoveItem(ctx context.Context, groupID string, id int, itemID string) error {
	if err := s.repo.UnassignItem(ctx, groupID, id, itemID); err != nil {
		return err
	}

	metrics.IncrementMilestoneMutation("assign")
	s.publishEvent(mq.RoutingKeyMilestoneUpdated, mq.MilestonePayload{
		GroupID:     groupID,
		MilestoneID: id,
	})
	return nil
}

// publishEvent is fire-and-forget: a broken broker must not fail the
// mutation that already committed.
func (s *MilestoneService) publishEvent(routingKey string, payload any) {
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
