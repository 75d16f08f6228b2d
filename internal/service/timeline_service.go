package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"teammy/internal/model"
	"teammy/internal/repository"
)

// TimelineWindowDays is the default read window on each side of today when
// the caller does not bound the range.
const TimelineWindowDays = 365

// TimelineService is the chronological read model over a group's milestones.
type TimelineService struct {
	repo   *repository.MilestoneRepository
	logger *zap.Logger
}

func NewTimelineService(repo *repository.MilestoneRepository, logger *zap.Logger) *TimelineService {
	return &TimelineService{repo: repo, logger: logger}
}

// Window returns the milestones whose target date falls inside
// [startDate, endDate], sorted oldest first with undated milestones last.
// Empty bounds default to today ±365 days.
func (s *TimelineService) Window(ctx context.Context, groupID, startDate, endDate string) ([]model.Milestone, error) {
	today := model.Today()

	start := today.AddDays(-TimelineWindowDays)
	if d, ok := model.ParseDate(startDate); ok {
		start = d
	} else if startDate != "" {
		return nil, validationError("startDate must be a YYYY-MM-DD date")
	}

	end := today.AddDays(TimelineWindowDays)
	if d, ok := model.ParseDate(endDate); ok {
		end = d
	} else if endDate != "" {
		return nil, validationError("endDate must be a YYYY-MM-DD date")
	}

	if end.Before(start) {
		return nil, validationError("endDate cannot be before startDate")
	}

	milestones, err := s.repo.ListByWindow(ctx, groupID, start.Time, end.Time)
	if err != nil {
		return nil, err
	}

	SortByTargetDate(milestones, false)
	return milestones, nil
}

// SortByTargetDate orders milestones chronologically. Undated milestones
// sort last in oldest-first order; newestFirst reverses the whole order, so
// they come first there.
func SortByTargetDate(milestones []model.Milestone, newestFirst bool) {
	sort.SliceStable(milestones, func(i, j int) bool {
		c := compareTargetDates(milestones[i].TargetDate, milestones[j].TargetDate)
		if newestFirst {
			return c > 0
		}
		return c < 0
	})
}

// compareTargetDates orders dated before undated; among dated milestones,
// earlier dates come first.
func compareTargetDates(a, b model.DateOnly) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}
