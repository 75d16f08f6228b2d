package model

import "time"

const (
	MilestoneStatusPlanned    = "planned"
	MilestoneStatusInProgress = "in_progress"
	MilestoneStatusDone       = "done"
)

// Milestone is a group's tracked delivery target. Progress counts and the
// overdue flag are derived from the linked backlog items, never stored.
type Milestone struct {
	ID          int        `json:"milestoneId"`
	GroupID     string     `json:"groupId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	TargetDate  DateOnly   `json:"targetDate"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	TotalItems        int           `json:"totalItems"`
	CompletedItems    int           `json:"completedItems"`
	CompletionPercent int           `json:"completionPercent"`
	IsOverdue         bool          `json:"isOverdue"`
	Items             []BacklogItem `json:"items,omitempty"`
}

// MilestoneCreate is the create request body.
type MilestoneCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TargetDate  string `json:"targetDate"`
}

// MilestoneUpdate is the edit request body. Nil fields are left untouched;
// an explicit empty targetDate clears the date.
type MilestoneUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	TargetDate  *string `json:"targetDate"`
	Status      *string `json:"status"`
	CompletedAt *string `json:"completedAt"`
}

// NormalizeStatus maps the legacy "completed" status onto done.
func NormalizeStatus(status string) string {
	if status == "completed" {
		return MilestoneStatusDone
	}
	return status
}

func ValidStatus(status string) bool {
	switch NormalizeStatus(status) {
	case MilestoneStatusPlanned, MilestoneStatusInProgress, MilestoneStatusDone:
		return true
	}
	return false
}

// ComputeOverdue is the shared overdue heuristic: a dated milestone past
// its target with incomplete items.
func ComputeOverdue(targetDate DateOnly, completed, total int, today DateOnly) bool {
	return !targetDate.IsZero() && targetDate.Before(today) && completed < total
}
