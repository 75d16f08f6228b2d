package model

import "time"

// BacklogItem is owned by the backlog subsystem; this service reads it to
// derive milestone progress and to relink items between milestones.
type BacklogItem struct {
	ID          string    `json:"backlogItemId"`
	GroupID     string    `json:"groupId"`
	MilestoneID *int      `json:"milestoneId,omitempty"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	ColumnName  string    `json:"columnName,omitempty"`
	DueDate     DateOnly  `json:"dueDate"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Complete reports whether the item counts toward milestone progress.
func (b BacklogItem) Complete() bool {
	return b.Status == "done" || b.Status == "ready"
}
