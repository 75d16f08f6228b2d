package client

import "teammy/internal/model"

// Milestone is the canonical client-side record. Identifiers are
// normalized to strings because backend payloads deliver them as either
// numbers or strings depending on the endpoint.
type Milestone struct {
	ID                string
	Name              string
	Description       string
	TargetDate        model.DateOnly
	Status            string
	CompletedAt       model.DateOnly
	CompletedItems    int
	TotalItems        int
	CompletionPercent int
	IsOverdue         bool
	Items             []BacklogItem
}

type BacklogItem struct {
	ID          string
	MilestoneID string
	Title       string
	Status      string
	ColumnName  string
	DueDate     model.DateOnly
}

type OverdueSnapshot struct {
	IsOverdue              bool
	TotalItems             int
	CompletedItems         int
	IncompleteItems        int
	OverdueItems           int
	TasksDueAfterMilestone int
	OverdueBacklogItems    []BacklogItem
}

type MilestoneCreatePayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	TargetDate  string `json:"targetDate,omitempty"`
}

type MilestoneUpdatePayload struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	TargetDate  *string `json:"targetDate,omitempty"`
	Status      *string `json:"status,omitempty"`
	CompletedAt *string `json:"completedAt,omitempty"`
}

// MoveItemsPayload is the tagged union for the move remedy.
type MoveItemsPayload struct {
	CreateNewMilestone      bool   `json:"createNewMilestone"`
	TargetMilestoneID       FlexID `json:"targetMilestoneId,omitempty"`
	NewMilestoneName        string `json:"newMilestoneName,omitempty"`
	NewMilestoneTargetDate  string `json:"newMilestoneTargetDate,omitempty"`
	NewMilestoneDescription string `json:"newMilestoneDescription,omitempty"`
}
