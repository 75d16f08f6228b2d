package client

import (
	"context"
	"sort"

	"teammy/internal/model"
)

// MilestonePageSize is the timeline's fixed page length.
const MilestonePageSize = 5

// DefaultItemPageSize is the initial drill-down page length; it is
// adjustable per projection.
const DefaultItemPageSize = 5

// TimelineProjection is the read-only chronological view over a group's
// milestones: sorted by target date, paginated locally, with an on-demand
// drill-down into each milestone's backlog items.
type TimelineProjection struct {
	client  *Client
	groupID string

	milestones  []Milestone
	loadErr     string
	loaded      bool
	newestFirst bool
	page        int

	itemPageSize int
	drillID      string
	drillItems   []BacklogItem
	drillPage    int
}

func NewTimelineProjection(c *Client, groupID string) *TimelineProjection {
	return &TimelineProjection{
		client:       c,
		groupID:      groupID,
		itemPageSize: DefaultItemPageSize,
	}
}

// Load fetches the milestone list and resets paging. A fetch error is
// kept for inline rendering, not surfaced as a notice.
func (p *TimelineProjection) Load(ctx context.Context) {
	p.loaded = false
	p.loadErr = ""
	p.page = 0
	p.drillID = ""
	p.drillItems = nil

	milestones, err := p.client.ListMilestones(ctx, p.groupID)
	if err != nil {
		p.loadErr = failureMessage(err)
		p.milestones = nil
		return
	}
	p.milestones = milestones
	p.loaded = true
	p.resort()
}

// Error returns the inline error text from the last load, empty on
// success.
func (p *TimelineProjection) Error() string { return p.loadErr }

// Empty reports whether the timeline loaded successfully with no
// milestones, which renders as an explicit empty state.
func (p *TimelineProjection) Empty() bool { return p.loaded && len(p.milestones) == 0 }

// NewestFirst reports the current sort direction.
func (p *TimelineProjection) NewestFirst() bool { return p.newestFirst }

// ToggleOrder flips the sort direction and recomputes locally without a
// refetch.
func (p *TimelineProjection) ToggleOrder() {
	p.newestFirst = !p.newestFirst
	p.resort()
	p.page = 0
}

func (p *TimelineProjection) resort() {
	sort.SliceStable(p.milestones, func(i, j int) bool {
		c := compareTargetDates(p.milestones[i].TargetDate, p.milestones[j].TargetDate)
		if p.newestFirst {
			return c > 0
		}
		return c < 0
	})
}

// compareTargetDates orders dated milestones chronologically and sorts
// undated ones after every dated one.
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

// Page returns the current page of milestones.
func (p *TimelineProjection) Page() []Milestone {
	return paginate(p.milestones, p.page, MilestonePageSize)
}

func (p *TimelineProjection) PageCount() int {
	return pageCount(len(p.milestones), MilestonePageSize)
}

func (p *TimelineProjection) SetPage(page int) {
	p.page = clampPage(page, p.PageCount())
}

// DrillDown resolves the backlog items of one milestone. The backend's
// milestone payload shape is inconsistent across endpoints, so resolution
// falls back in order: items embedded on the loaded record, a refetch of
// the milestone list matched by id, and finally a scan of the group
// backlog matched by milestone id or, failing that, by name.
func (p *TimelineProjection) DrillDown(ctx context.Context, milestoneID string) ([]BacklogItem, error) {
	p.drillID = milestoneID
	p.drillPage = 0
	p.drillItems = nil

	var selected *Milestone
	for i := range p.milestones {
		if p.milestones[i].ID == milestoneID {
			selected = &p.milestones[i]
			break
		}
	}
	if selected != nil && len(selected.Items) > 0 {
		p.drillItems = selected.Items
		return p.drillItems, nil
	}

	refreshed, err := p.client.ListMilestones(ctx, p.groupID)
	if err == nil {
		for _, m := range refreshed {
			if m.ID == milestoneID && len(m.Items) > 0 {
				p.drillItems = m.Items
				return p.drillItems, nil
			}
		}
	}

	backlog, err := p.client.ListBacklog(ctx, p.groupID)
	if err != nil {
		return nil, err
	}
	p.drillItems = matchBacklogItems(backlog, milestoneID, milestoneName(selected))
	return p.drillItems, nil
}

func milestoneName(m *Milestone) string {
	if m == nil {
		return ""
	}
	return m.Name
}

// matchBacklogItems picks the backlog items belonging to a milestone,
// matching by id first and by normalized name as a last resort.
func matchBacklogItems(backlog []BacklogItem, milestoneID, name string) []BacklogItem {
	matched := []BacklogItem{}
	for _, item := range backlog {
		if item.MilestoneID != "" && item.MilestoneID == milestoneID {
			matched = append(matched, item)
		}
	}
	if len(matched) > 0 || name == "" {
		return matched
	}

	want := normalizeName(name)
	for _, item := range backlog {
		if normalizeName(item.Title) == want {
			matched = append(matched, item)
		}
	}
	return matched
}

// ItemPage returns the current drill-down page.
func (p *TimelineProjection) ItemPage() []BacklogItem {
	return paginate(p.drillItems, p.drillPage, p.itemPageSize)
}

func (p *TimelineProjection) ItemPageCount() int {
	return pageCount(len(p.drillItems), p.itemPageSize)
}

func (p *TimelineProjection) SetItemPage(page int) {
	p.drillPage = clampPage(page, p.ItemPageCount())
}

// SetItemPageSize adjusts the drill-down page length and resets to the
// first page.
func (p *TimelineProjection) SetItemPageSize(size int) {
	if size < 1 {
		size = 1
	}
	p.itemPageSize = size
	p.drillPage = 0
}

func paginate[T any](all []T, page, size int) []T {
	start := page * size
	if start >= len(all) {
		return []T{}
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func pageCount(total, size int) int {
	if total == 0 {
		return 1
	}
	return (total + size - 1) / size
}

func clampPage(page, count int) int {
	if page < 0 {
		return 0
	}
	if page >= count {
		return count - 1
	}
	return page
}
