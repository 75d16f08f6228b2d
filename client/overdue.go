package client

import (
	"context"
	"fmt"

	"teammy/internal/model"
)

// EngineState is the overdue-resolution lifecycle.
type EngineState string

const (
	StateIdle            EngineState = "idle"
	StateLoadingSnapshot EngineState = "loadingSnapshot"
	StateSnapshotReady   EngineState = "snapshotReady"
	StateSnapshotError   EngineState = "snapshotError"
	StateExtending       EngineState = "extending"
	StateMovingItems     EngineState = "movingItems"
)

// OverdueResolutionEngine drives the resolve-overdue panel for one
// selected milestone: it fetches the snapshot on activation and runs the
// two mutually exclusive remedies, extend or move.
type OverdueResolutionEngine struct {
	client   *Client
	notifier Notifier

	groupID   string
	milestone Milestone
	onRefresh func()

	state      EngineState
	snapshot   OverdueSnapshot
	fetchErr   string
	dateInput  string
	generation int
}

// NewOverdueResolutionEngine builds an idle engine. onRefresh is invoked
// after a successful remedy so the owner can reload its milestone list;
// it may be nil.
func NewOverdueResolutionEngine(c *Client, notifier Notifier, onRefresh func()) *OverdueResolutionEngine {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &OverdueResolutionEngine{
		client:    c,
		notifier:  notifier,
		onRefresh: onRefresh,
		state:     StateIdle,
	}
}

func (e *OverdueResolutionEngine) State() EngineState        { return e.state }
func (e *OverdueResolutionEngine) Snapshot() OverdueSnapshot { return e.snapshot }
func (e *OverdueResolutionEngine) FetchError() string        { return e.fetchErr }
func (e *OverdueResolutionEngine) DateInput() string         { return e.dateInput }

// Activate selects a milestone and fetches its snapshot. Only existing
// milestones activate the engine; create-mode editors never do.
func (e *OverdueResolutionEngine) Activate(ctx context.Context, groupID string, m Milestone) {
	if m.ID == "" {
		return
	}
	e.groupID = groupID
	e.milestone = m
	e.dateInput = ""
	e.fetchSnapshot(ctx)
}

// Deactivate resets to idle and discards all snapshot state. A fetch
// still in flight for the old selection is discarded on return.
func (e *OverdueResolutionEngine) Deactivate() {
	e.generation++
	e.state = StateIdle
	e.snapshot = OverdueSnapshot{}
	e.fetchErr = ""
	e.dateInput = ""
	e.milestone = Milestone{}
}

// Retry re-fetches the snapshot after a fetch error.
func (e *OverdueResolutionEngine) Retry(ctx context.Context) {
	if e.state != StateSnapshotError {
		return
	}
	e.fetchSnapshot(ctx)
}

func (e *OverdueResolutionEngine) fetchSnapshot(ctx context.Context) {
	e.generation++
	gen := e.generation
	e.state = StateLoadingSnapshot
	e.fetchErr = ""

	snapshot, err := e.client.GetOverdueActions(ctx, e.groupID, e.milestone.ID)
	if gen != e.generation {
		return
	}
	if err != nil {
		e.state = StateSnapshotError
		e.fetchErr = failureMessage(err)
		return
	}
	e.snapshot = snapshot
	e.state = StateSnapshotReady
}

// ShowResolvePanel reports whether the resolve-overdue panel renders:
// only with a loaded snapshot that is overdue and still has incomplete
// items.
func (e *OverdueResolutionEngine) ShowResolvePanel() bool {
	return e.state == StateSnapshotReady && e.snapshot.IsOverdue && e.snapshot.IncompleteItems > 0
}

// SetDateInput stores the operator's extend date without submitting.
func (e *OverdueResolutionEngine) SetDateInput(value string) {
	e.dateInput = value
}

// QuickPickBase is the anchor for the quick-pick helpers: the milestone's
// own target date when it is still in the future, otherwise today.
func (e *OverdueResolutionEngine) QuickPickBase() model.DateOnly {
	today := model.Today()
	if !e.milestone.TargetDate.IsZero() && today.Before(e.milestone.TargetDate) {
		return e.milestone.TargetDate
	}
	return today
}

// QuickPickPlusWeeks populates the date input with base plus n weeks.
func (e *OverdueResolutionEngine) QuickPickPlusWeeks(n int) {
	e.dateInput = e.QuickPickBase().AddDays(7 * n).String()
}

// QuickPickEndOfMonth populates the date input with the last day of the
// current month.
func (e *OverdueResolutionEngine) QuickPickEndOfMonth() {
	e.dateInput = model.EndOfMonth(model.Today()).String()
}

// Extend submits the date in the input as the new target date. On
// success it clears the input, re-fetches the snapshot, and signals the
// owner to refresh.
func (e *OverdueResolutionEngine) Extend(ctx context.Context) {
	if e.state != StateSnapshotReady {
		return
	}
	date, ok := e.validateDate(e.dateInput)
	if !ok {
		return
	}

	e.state = StateExtending
	err := e.client.ExtendMilestone(ctx, e.groupID, e.milestone.ID, date.String())
	if err != nil {
		e.state = StateSnapshotReady
		e.notifier.Notify(NoticeError, failureMessage(err))
		return
	}

	e.notifier.Notify(NoticeSuccess, "milestone target date extended")
	e.dateInput = ""
	e.milestone.TargetDate = date
	e.fetchSnapshot(ctx)
	e.signalRefresh()
}

// MoveToExisting moves the incomplete items to another milestone of the
// group. Self-moves are rejected before any network call.
func (e *OverdueResolutionEngine) MoveToExisting(ctx context.Context, targetMilestoneID string) bool {
	if e.state != StateSnapshotReady {
		return false
	}
	if targetMilestoneID == "" {
		e.notifier.Notify(NoticeInfo, "select a destination milestone")
		return false
	}
	if targetMilestoneID == e.milestone.ID {
		e.notifier.Notify(NoticeInfo, "cannot move items to the same milestone")
		return false
	}
	return e.submitMove(ctx, MoveItemsPayload{
		CreateNewMilestone: false,
		TargetMilestoneID:  FlexID(targetMilestoneID),
	})
}

// MoveToNew creates a destination milestone inline and moves the
// incomplete items into it.
func (e *OverdueResolutionEngine) MoveToNew(ctx context.Context, name, targetDate, description string) bool {
	if e.state != StateSnapshotReady {
		return false
	}
	if name == "" {
		e.notifier.Notify(NoticeInfo, "milestone name is required")
		return false
	}
	date, ok := e.validateDate(targetDate)
	if !ok {
		return false
	}
	return e.submitMove(ctx, MoveItemsPayload{
		CreateNewMilestone:      true,
		NewMilestoneName:        name,
		NewMilestoneTargetDate:  date.String(),
		NewMilestoneDescription: description,
	})
}

func (e *OverdueResolutionEngine) submitMove(ctx context.Context, payload MoveItemsPayload) bool {
	e.state = StateMovingItems
	err := e.client.MoveMilestoneItems(ctx, e.groupID, e.milestone.ID, payload)
	if err != nil {
		e.state = StateSnapshotReady
		e.notifier.Notify(NoticeError, failureMessage(err))
		return false
	}

	e.notifier.Notify(NoticeSuccess, "incomplete items moved")
	e.fetchSnapshot(ctx)
	e.signalRefresh()
	return true
}

func (e *OverdueResolutionEngine) signalRefresh() {
	if e.onRefresh != nil {
		e.onRefresh()
	}
}

// validateDate enforces day precision and the no-earlier-than-today rule
// shared with the editor form.
func (e *OverdueResolutionEngine) validateDate(value string) (model.DateOnly, bool) {
	date, err := validateFutureDate(value)
	if err != nil {
		e.notifier.Notify(NoticeInfo, err.Error())
		return model.DateOnly{}, false
	}
	return date, true
}

func validateFutureDate(value string) (model.DateOnly, error) {
	if value == "" {
		return model.DateOnly{}, fmt.Errorf("target date is required")
	}
	date, ok := model.ParseDate(value)
	if !ok {
		return model.DateOnly{}, fmt.Errorf("target date %q is not a valid date", value)
	}
	if date.Before(model.Today()) {
		return model.DateOnly{}, fmt.Errorf("target date must not be in the past")
	}
	return date, nil
}
