package client

import (
	"context"
	"strings"

	"teammy/internal/model"
)

// EditorMode is the editor form's lifecycle.
type EditorMode string

const (
	EditorClosed EditorMode = "closed"
	EditorCreate EditorMode = "create"
	EditorEdit   EditorMode = "edit"
)

// DeleteConfirmationWord must be typed, case-insensitively, before a
// delete is issued.
const DeleteConfirmationWord = "delete"

// MilestoneEditorForm drives the create/edit modal, the type-to-confirm
// delete, and the assign-items sub-flow.
type MilestoneEditorForm struct {
	client   *Client
	notifier Notifier

	groupID   string
	onRefresh func()

	mode      EditorMode
	milestone Milestone
	saving    bool

	Name        string
	Description string
	TargetDate  string
	Status      string
	CompletedAt string
}

func NewMilestoneEditorForm(c *Client, notifier Notifier, onRefresh func()) *MilestoneEditorForm {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &MilestoneEditorForm{
		client:    c,
		notifier:  notifier,
		onRefresh: onRefresh,
		mode:      EditorClosed,
	}
}

func (f *MilestoneEditorForm) Mode() EditorMode { return f.mode }
func (f *MilestoneEditorForm) Saving() bool     { return f.saving }

// Milestone returns the record under edit; zero-valued in create mode.
func (f *MilestoneEditorForm) Milestone() Milestone { return f.milestone }

// OpenCreate opens an empty form for a new milestone.
func (f *MilestoneEditorForm) OpenCreate(groupID string) {
	f.groupID = groupID
	f.milestone = Milestone{}
	f.mode = EditorCreate
	f.Name = ""
	f.Description = ""
	f.TargetDate = ""
	f.Status = model.MilestoneStatusPlanned
	f.CompletedAt = ""
}

// OpenEdit opens the form pre-filled from an existing milestone.
func (f *MilestoneEditorForm) OpenEdit(groupID string, m Milestone) {
	f.groupID = groupID
	f.milestone = m
	f.mode = EditorEdit
	f.Name = m.Name
	f.Description = m.Description
	f.TargetDate = ""
	if !m.TargetDate.IsZero() {
		f.TargetDate = m.TargetDate.String()
	}
	f.Status = m.Status
	f.CompletedAt = ""
	if !m.CompletedAt.IsZero() {
		f.CompletedAt = m.CompletedAt.String()
	}
}

// Close discards the form state without saving.
func (f *MilestoneEditorForm) Close() {
	f.mode = EditorClosed
	f.milestone = Milestone{}
	f.saving = false
}

// Submit validates and issues the create or update call. Validation
// failures and server errors leave the form open for correction.
func (f *MilestoneEditorForm) Submit(ctx context.Context) bool {
	if f.mode == EditorClosed || f.saving {
		return false
	}

	name := strings.TrimSpace(f.Name)
	if name == "" {
		f.notifier.Notify(NoticeInfo, "milestone name is required")
		return false
	}
	if f.TargetDate != "" {
		if _, err := validateFutureDate(f.TargetDate); err != nil {
			f.notifier.Notify(NoticeInfo, err.Error())
			return false
		}
	}

	f.saving = true
	defer func() { f.saving = false }()

	var err error
	if f.mode == EditorCreate {
		_, err = f.client.CreateMilestone(ctx, f.groupID, MilestoneCreatePayload{
			Name:        name,
			Description: f.Description,
			TargetDate:  f.TargetDate,
		})
	} else {
		payload := MilestoneUpdatePayload{
			Name:        &name,
			Description: &f.Description,
			TargetDate:  &f.TargetDate,
		}
		status := model.NormalizeStatus(f.Status)
		if f.Status != "" {
			payload.Status = &status
		}
		// A completion timestamp only travels with a done status.
		if f.CompletedAt != "" && status == model.MilestoneStatusDone {
			payload.CompletedAt = &f.CompletedAt
		}
		_, err = f.client.UpdateMilestone(ctx, f.groupID, f.milestone.ID, payload)
	}
	if err != nil {
		f.notifier.Notify(NoticeError, failureMessage(err))
		return false
	}

	f.notifier.Notify(NoticeSuccess, "milestone saved")
	f.Close()
	f.signalRefresh()
	return true
}

// Delete issues the destructive call only when the typed confirmation
// matches the confirmation word exactly, ignoring case.
func (f *MilestoneEditorForm) Delete(ctx context.Context, confirmation string) bool {
	if f.mode != EditorEdit || f.milestone.ID == "" {
		return false
	}
	if !strings.EqualFold(confirmation, DeleteConfirmationWord) {
		f.notifier.Notify(NoticeInfo, "type \"delete\" to confirm")
		return false
	}

	if err := f.client.DeleteMilestone(ctx, f.groupID, f.milestone.ID); err != nil {
		f.notifier.Notify(NoticeError, failureMessage(err))
		return false
	}

	f.notifier.Notify(NoticeSuccess, "milestone deleted")
	f.Close()
	f.signalRefresh()
	return true
}

// AssignableItems filters the group backlog down to items that can still
// be assigned: everything not already in the terminal "ready" state.
func (f *MilestoneEditorForm) AssignableItems(backlog []BacklogItem) []BacklogItem {
	assignable := []BacklogItem{}
	for _, item := range backlog {
		if item.Status == "ready" {
			continue
		}
		assignable = append(assignable, item)
	}
	return assignable
}

// AssignItems bulk-links the selected backlog items to the milestone
// under edit. An empty selection never reaches the backend.
func (f *MilestoneEditorForm) AssignItems(ctx context.Context, backlogItemIDs []string) bool {
	if f.mode != EditorEdit || f.milestone.ID == "" {
		return false
	}
	if len(backlogItemIDs) == 0 {
		f.notifier.Notify(NoticeInfo, "select at least one backlog item")
		return false
	}

	if err := f.client.AssignBacklogItems(ctx, f.groupID, f.milestone.ID, backlogItemIDs); err != nil {
		f.notifier.Notify(NoticeError, failureMessage(err))
		return false
	}

	f.notifier.Notify(NoticeSuccess, "backlog items assigned")
	f.signalRefresh()
	return true
}

// RemoveItem unlinks one backlog item from the milestone under edit.
func (f *MilestoneEditorForm) RemoveItem(ctx context.Context, backlogItemID string) bool {
	if f.mode != EditorEdit || f.milestone.ID == "" {
		return false
	}

	if err := f.client.RemoveBacklogItem(ctx, f.groupID, f.milestone.ID, backlogItemID); err != nil {
		f.notifier.Notify(NoticeError, failureMessage(err))
		return false
	}

	f.signalRefresh()
	return true
}

func (f *MilestoneEditorForm) signalRefresh() {
	if f.onRefresh != nil {
		f.onRefresh()
	}
}
