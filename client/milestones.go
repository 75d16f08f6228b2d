package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// ListMilestones fetches and normalizes every milestone of a group.
func (c *Client) ListMilestones(ctx context.Context, groupID string) ([]Milestone, error) {
	data, err := c.get(ctx, groupPath(groupID, "/milestones"))
	if err != nil {
		return nil, err
	}
	return decodeMilestoneList(data), nil
}

// GetMilestone fetches one milestone with its assigned backlog items.
func (c *Client) GetMilestone(ctx context.Context, groupID, milestoneID string) (Milestone, error) {
	data, err := c.get(ctx, groupPath(groupID, "/milestones/"+url.PathEscape(milestoneID)))
	if err != nil {
		return Milestone{}, err
	}
	return decodeMilestone(data)
}

func (c *Client) CreateMilestone(ctx context.Context, groupID string, payload MilestoneCreatePayload) (Milestone, error) {
	data, err := c.request(ctx, http.MethodPost, groupPath(groupID, "/milestones"), payload)
	if err != nil {
		return Milestone{}, err
	}
	return decodeMilestone(data)
}

func (c *Client) UpdateMilestone(ctx context.Context, groupID, milestoneID string, payload MilestoneUpdatePayload) (Milestone, error) {
	data, err := c.request(ctx, http.MethodPut, groupPath(groupID, "/milestones/"+url.PathEscape(milestoneID)), payload)
	if err != nil {
		return Milestone{}, err
	}
	return decodeMilestone(data)
}

func (c *Client) DeleteMilestone(ctx context.Context, groupID, milestoneID string) error {
	_, err := c.request(ctx, http.MethodDelete, groupPath(groupID, "/milestones/"+url.PathEscape(milestoneID)), nil)
	return err
}

// AssignBacklogItems attaches the given backlog items to a milestone.
func (c *Client) AssignBacklogItems(ctx context.Context, groupID, milestoneID string, backlogItemIDs []string) error {
	body := struct {
		BacklogItemIDs []string `json:"backlogItemIds"`
	}{BacklogItemIDs: backlogItemIDs}
	_, err := c.request(ctx, http.MethodPost, groupPath(groupID, "/milestones/"+url.PathEscape(milestoneID)+"/assign-items"), body)
	return err
}

// RemoveBacklogItem detaches one backlog item from a milestone.
func (c *Client) RemoveBacklogItem(ctx context.Context, groupID, milestoneID, backlogItemID string) error {
	path := groupPath(groupID, "/milestones/"+url.PathEscape(milestoneID)+"/items/"+url.PathEscape(backlogItemID))
	_, err := c.request(ctx, http.MethodDelete, path, nil)
	return err
}

// ListBacklog fetches the group's backlog items.
func (c *Client) ListBacklog(ctx context.Context, groupID string) ([]BacklogItem, error) {
	data, err := c.get(ctx, groupPath(groupID, "/backlog"))
	if err != nil {
		return nil, err
	}
	return decodeBacklogList(data), nil
}

// GetOverdueActions fetches the resolution snapshot for one milestone.
func (c *Client) GetOverdueActions(ctx context.Context, groupID, milestoneID string) (OverdueSnapshot, error) {
	data, err := c.get(ctx, groupPath(groupID, "/tracking/milestones/"+url.PathEscape(milestoneID)+"/overdue-actions"))
	if err != nil {
		return OverdueSnapshot{}, err
	}

	var raw struct {
		IsOverdue              bool            `json:"isOverdue"`
		TotalItems             int             `json:"totalItems"`
		CompletedItems         int             `json:"completedItems"`
		IncompleteItems        int             `json:"incompleteItems"`
		OverdueItems           int             `json:"overdueItems"`
		TasksDueAfterMilestone int             `json:"tasksDueAfterMilestone"`
		OverdueBacklogItems    []rawBacklogRef `json:"overdueBacklogItems"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return OverdueSnapshot{}, fmt.Errorf("decode overdue snapshot: %w", err)
	}

	snapshot := OverdueSnapshot{
		IsOverdue:              raw.IsOverdue,
		TotalItems:             raw.TotalItems,
		CompletedItems:         raw.CompletedItems,
		IncompleteItems:        raw.IncompleteItems,
		OverdueItems:           raw.OverdueItems,
		TasksDueAfterMilestone: raw.TasksDueAfterMilestone,
	}
	for _, ref := range raw.OverdueBacklogItems {
		snapshot.OverdueBacklogItems = append(snapshot.OverdueBacklogItems, ref.normalize())
	}
	return snapshot, nil
}

// ExtendMilestone pushes the milestone's target date forward.
func (c *Client) ExtendMilestone(ctx context.Context, groupID, milestoneID, newTargetDate string) error {
	body := struct {
		NewTargetDate string `json:"newTargetDate"`
	}{NewTargetDate: newTargetDate}
	_, err := c.request(ctx, http.MethodPost, groupPath(groupID, "/tracking/milestones/"+url.PathEscape(milestoneID)+"/extend"), body)
	return err
}

// MoveMilestoneItems relocates a milestone's incomplete items per the
// tagged payload.
func (c *Client) MoveMilestoneItems(ctx context.Context, groupID, milestoneID string, payload MoveItemsPayload) error {
	_, err := c.request(ctx, http.MethodPost, groupPath(groupID, "/tracking/milestones/"+url.PathEscape(milestoneID)+"/move-tasks"), payload)
	return err
}

// GetTimelineMilestones fetches milestones inside a date window. Dates are
// day strings; either bound may be empty for the server default.
func (c *Client) GetTimelineMilestones(ctx context.Context, groupID, startDate, endDate string) ([]Milestone, error) {
	query := url.Values{}
	if startDate != "" {
		query.Set("startDate", startDate)
	}
	if endDate != "" {
		query.Set("endDate", endDate)
	}
	path := groupPath(groupID, "/tracking/timeline")
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	data, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	return decodeMilestoneList(data), nil
}

func decodeMilestone(data []byte) (Milestone, error) {
	var raw rawMilestone
	if err := json.Unmarshal(data, &raw); err != nil {
		return Milestone{}, fmt.Errorf("decode milestone: %w", err)
	}
	return raw.normalize(), nil
}
