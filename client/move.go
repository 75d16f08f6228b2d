package client

import (
	"context"

	"teammy/internal/model"
)

// MoveMode selects between the dialog's two destination tabs.
type MoveMode string

const (
	MoveToExistingMode MoveMode = "existing"
	MoveToNewMode      MoveMode = "new"
)

// CandidateWindowDays bounds the destination list to milestones within a
// year of today in either direction.
const CandidateWindowDays = 365

// MoveItemsDialog is the standalone move-incomplete-items sub-dialog. It
// loads its own candidate list when opened and delegates the submit to
// the resolution engine.
type MoveItemsDialog struct {
	client *Client
	engine *OverdueResolutionEngine

	open       bool
	mode       MoveMode
	groupID    string
	currentID  string
	candidates []Milestone
	loadErr    string

	TargetID       string
	NewName        string
	NewTargetDate  string
	NewDescription string
}

func NewMoveItemsDialog(c *Client, engine *OverdueResolutionEngine) *MoveItemsDialog {
	return &MoveItemsDialog{
		client: c,
		engine: engine,
		mode:   MoveToExistingMode,
	}
}

func (d *MoveItemsDialog) IsOpen() bool            { return d.open }
func (d *MoveItemsDialog) Mode() MoveMode          { return d.mode }
func (d *MoveItemsDialog) Candidates() []Milestone { return d.candidates }
func (d *MoveItemsDialog) Error() string           { return d.loadErr }

func (d *MoveItemsDialog) SetMode(mode MoveMode) {
	d.mode = mode
}

// Open resets the dialog and loads the candidate destinations: milestones
// of the group windowed to ±365 days from today, never including the
// milestone being resolved.
func (d *MoveItemsDialog) Open(ctx context.Context, groupID, currentMilestoneID string) {
	d.open = true
	d.mode = MoveToExistingMode
	d.groupID = groupID
	d.currentID = currentMilestoneID
	d.candidates = nil
	d.loadErr = ""
	d.TargetID = ""
	d.NewName = ""
	d.NewTargetDate = ""
	d.NewDescription = ""

	today := model.Today()
	start := today.AddDays(-CandidateWindowDays).String()
	end := today.AddDays(CandidateWindowDays).String()
	milestones, err := d.client.GetTimelineMilestones(ctx, groupID, start, end)
	if err != nil {
		d.loadErr = failureMessage(err)
		return
	}
	for _, m := range milestones {
		if m.ID == currentMilestoneID {
			continue
		}
		d.candidates = append(d.candidates, m)
	}
}

func (d *MoveItemsDialog) Close() {
	d.open = false
	d.candidates = nil
}

// Submit runs the engine's move flow for the active tab. On success the
// dialog closes; on failure it stays open for correction.
func (d *MoveItemsDialog) Submit(ctx context.Context) bool {
	if !d.open {
		return false
	}

	var ok bool
	if d.mode == MoveToExistingMode {
		ok = d.engine.MoveToExisting(ctx, d.TargetID)
	} else {
		ok = d.engine.MoveToNew(ctx, d.NewName, d.NewTargetDate, d.NewDescription)
	}
	if ok {
		d.Close()
	}
	return ok
}
