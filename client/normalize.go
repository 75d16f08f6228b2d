package client

import (
	"encoding/json"
	"strconv"
	"strings"

	"teammy/internal/model"
)

// FlexID is an identifier that may arrive as a JSON number or string. It
// normalizes to a string and marshals back as a number when it is one, so
// requests round-trip against either backend convention.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexID(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexID(s)
		return nil
	}
	*f = ""
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.Atoi(string(f)); err == nil {
		return []byte(f), nil
	}
	return json.Marshal(string(f))
}

// rawMilestone accepts every milestone shape the backend is known to emit:
// ids under milestoneId/id/_id, items under items/backlogItems/tasks, the
// legacy "completed" status, and dates as either day strings or datetimes.
type rawMilestone struct {
	MilestoneID FlexID `json:"milestoneId"`
	ID          FlexID `json:"id"`
	AltID       FlexID `json:"_id"`

	Name  string `json:"name"`
	Title string `json:"title"`

	Description       string          `json:"description"`
	TargetDate        model.DateOnly  `json:"targetDate"`
	Status            string          `json:"status"`
	CompletedAt       model.DateOnly  `json:"completedAt"`
	CompletedItems    int             `json:"completedItems"`
	TotalItems        int             `json:"totalItems"`
	CompletionPercent int             `json:"completionPercent"`
	IsOverdue         *bool           `json:"isOverdue"`
	Items             []rawBacklogRef `json:"items"`
	BacklogItems      []rawBacklogRef `json:"backlogItems"`
	Tasks             []rawBacklogRef `json:"tasks"`
}

type rawBacklogRef struct {
	BacklogItemID FlexID `json:"backlogItemId"`
	ID            FlexID `json:"id"`
	AltID         FlexID `json:"_id"`

	MilestoneID FlexID `json:"milestoneId"`

	Title string `json:"title"`
	Name  string `json:"name"`

	Status     string         `json:"status"`
	ColumnName string         `json:"columnName"`
	DueDate    model.DateOnly `json:"dueDate"`
}

func firstID(ids ...FlexID) string {
	for _, id := range ids {
		if id != "" {
			return string(id)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (r rawMilestone) normalize() Milestone {
	m := Milestone{
		ID:                firstID(r.MilestoneID, r.ID, r.AltID),
		Name:              firstNonEmpty(r.Name, r.Title),
		Description:       r.Description,
		TargetDate:        r.TargetDate,
		Status:            model.NormalizeStatus(r.Status),
		CompletedAt:       r.CompletedAt,
		CompletedItems:    r.CompletedItems,
		TotalItems:        r.TotalItems,
		CompletionPercent: r.CompletionPercent,
	}

	for _, refs := range [][]rawBacklogRef{r.Items, r.BacklogItems, r.Tasks} {
		if len(refs) > 0 {
			for _, ref := range refs {
				m.Items = append(m.Items, ref.normalize())
			}
			break
		}
	}

	// The backend-supplied flag wins; the heuristic covers payloads
	// without one.
	if r.IsOverdue != nil {
		m.IsOverdue = *r.IsOverdue
	} else {
		m.IsOverdue = model.ComputeOverdue(m.TargetDate, m.CompletedItems, m.TotalItems, model.Today())
	}

	return m
}

func (r rawBacklogRef) normalize() BacklogItem {
	return BacklogItem{
		ID:          firstID(r.BacklogItemID, r.ID, r.AltID),
		MilestoneID: string(r.MilestoneID),
		Title:       firstNonEmpty(r.Title, r.Name),
		Status:      r.Status,
		ColumnName:  r.ColumnName,
		DueDate:     r.DueDate,
	}
}

// unwrapList tolerates the three list envelopes in the wild: a bare array,
// {<key>: [...]}, and {data: {<key>: [...]}} (or {data: [...]}).
func unwrapList(data []byte, keys ...string) []json.RawMessage {
	var bare []json.RawMessage
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil
	}

	for _, key := range keys {
		if inner, ok := envelope[key]; ok {
			if list := unwrapList(inner, keys...); list != nil {
				return list
			}
		}
	}
	if inner, ok := envelope["data"]; ok {
		return unwrapList(inner, keys...)
	}
	return nil
}

func decodeMilestoneList(data []byte) []Milestone {
	milestones := []Milestone{}
	for _, raw := range unwrapList(data, "milestones") {
		var r rawMilestone
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		milestones = append(milestones, r.normalize())
	}
	return milestones
}

func decodeBacklogList(data []byte) []BacklogItem {
	items := []BacklogItem{}
	for _, raw := range unwrapList(data, "items", "backlog") {
		var r rawBacklogRef
		if err := json.Unmarshal(raw, &r); err != nil {
			continue
		}
		items = append(items, r.normalize())
	}
	return items
}

// normalizeName lowers and trims a name for fallback matching.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
