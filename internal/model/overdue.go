package model

// OverdueActions is the per-milestone resolution snapshot. It is computed
// on demand and never persisted.
type OverdueActions struct {
	MilestoneID            int      `json:"milestoneId"`
	TargetDate             DateOnly `json:"targetDate"`
	IsOverdue              bool     `json:"isOverdue"`
	TotalItems             int      `json:"totalItems"`
	CompletedItems         int      `json:"completedItems"`
	IncompleteItems        int      `json:"incompleteItems"`
	OverdueItems           int      `json:"overdueItems"`
	TasksDueAfterMilestone int      `json:"tasksDueAfterMilestone"`

	OverdueBacklogItems []OverdueBacklogItem `json:"overdueBacklogItems"`
}

// OverdueBacklogItem is the display slice of an overdue item.
type OverdueBacklogItem struct {
	ID         string   `json:"backlogItemId"`
	Title      string   `json:"title"`
	Status     string   `json:"status"`
	ColumnName string   `json:"columnName,omitempty"`
	DueDate    DateOnly `json:"dueDate"`
}

// ExtendRequest carries the extend remedy's new date.
type ExtendRequest struct {
	NewTargetDate string `json:"newTargetDate"`
}

// MoveTasksRequest is the move remedy's tagged union: either an existing
// destination milestone or an inline new one.
type MoveTasksRequest struct {
	CreateNewMilestone      bool   `json:"createNewMilestone"`
	TargetMilestoneID       *int   `json:"targetMilestoneId"`
	NewMilestoneName        string `json:"newMilestoneName"`
	NewMilestoneTargetDate  string `json:"newMilestoneTargetDate"`
	NewMilestoneDescription string `json:"newMilestoneDescription"`
}

// AssignItemsRequest is the bulk-link request body.
type AssignItemsRequest struct {
	BacklogItemIDs []string `json:"backlogItemIds"`
}
