package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// timelineBackend serves a fixed milestone list and backlog.
type timelineBackend struct {
	mu         sync.Mutex
	milestones []map[string]any
	backlog    []map[string]any
	listCalls  int
	status     int
}

func newTimelineBackend(milestones ...map[string]any) *timelineBackend {
	return &timelineBackend{milestones: milestones, status: http.StatusOK}
}

func (b *timelineBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /groups/{groupId}/milestones", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.listCalls++
		if b.status >= 400 {
			w.WriteHeader(b.status)
			json.NewEncoder(w).Encode(map[string]string{"error": "milestones unavailable"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"milestones": b.milestones})
	})

	mux.HandleFunc("GET /groups/{groupId}/backlog", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"items": b.backlog})
	})

	return httptest.NewServer(mux)
}

func ms(id int, name, target string) map[string]any {
	m := map[string]any{"milestoneId": id, "name": name}
	if target != "" {
		m["targetDate"] = target
	}
	return m
}

func timelineDates(milestones []Milestone) []string {
	out := make([]string, len(milestones))
	for i, m := range milestones {
		out[i] = m.TargetDate.String()
	}
	return out
}

func TestTimelineSortAndToggle(t *testing.T) {
	backend := newTimelineBackend(
		ms(1, "march", "2025-03-01"),
		ms(2, "undated", ""),
		ms(3, "january", "2025-01-01"),
	)
	srv := backend.server(t)
	defer srv.Close()

	p := NewTimelineProjection(New(srv.URL, "t"), "g1")
	p.Load(context.Background())

	require.Empty(t, p.Error())
	assert.Equal(t, []string{"2025-01-01", "2025-03-01", "--"}, timelineDates(p.Page()))

	calls := backend.listCalls
	p.ToggleOrder()

	// Toggling re-sorts locally without another fetch.
	assert.Equal(t, calls, backend.listCalls)
	assert.True(t, p.NewestFirst())
	assert.Equal(t, []string{"--", "2025-03-01", "2025-01-01"}, timelineDates(p.Page()))
}

func TestTimelinePagination(t *testing.T) {
	var records []map[string]any
	for i := 0; i < 12; i++ {
		records = append(records, ms(i+1, "m", "2025-01-01"))
	}
	backend := newTimelineBackend(records...)
	srv := backend.server(t)
	defer srv.Close()

	p := NewTimelineProjection(New(srv.URL, "t"), "g1")
	p.Load(context.Background())

	assert.Equal(t, 3, p.PageCount())
	assert.Len(t, p.Page(), MilestonePageSize)

	p.SetPage(2)
	assert.Len(t, p.Page(), 2)

	p.SetPage(99)
	assert.Len(t, p.Page(), 2)

	p.SetPage(-1)
	assert.Len(t, p.Page(), MilestonePageSize)
}

func TestTimelineEmptyState(t *testing.T) {
	backend := newTimelineBackend()
	srv := backend.server(t)
	defer srv.Close()

	p := NewTimelineProjection(New(srv.URL, "t"), "g1")
	p.Load(context.Background())

	assert.True(t, p.Empty())
	assert.Empty(t, p.Error())
	assert.Empty(t, p.Page())
}

func TestTimelineLoadErrorIsInline(t *testing.T) {
	backend := newTimelineBackend()
	backend.status = http.StatusInternalServerError
	srv := backend.server(t)
	defer srv.Close()

	p := NewTimelineProjection(New(srv.URL, "t"), "g1")
	p.Load(context.Background())

	assert.Equal(t, "milestones unavailable", p.Error())
	assert.False(t, p.Empty())
}

func TestDrillDownEmbeddedItems(t *testing.T) {
	m := ms(1, "sprint", "2025-03-01")
	m["items"] = []map[string]any{{"backlogItemId": "b1", "title": "task"}}
	backend := newTimelineBackend(m)
	srv := backend.server(t)
	defer srv.Close()

	p := NewTimelineProjection(New(srv.URL, "t"), "g1")
	p.Load(context.Background())
	callsAfterLoad := backend.listCalls

	items, err := p.DrillDown(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].ID)
	// Embedded items resolve without another fetch.
	assert.Equal(t, callsAfterLoad, backend.listCalls)
}

func TestDrillDownRefetchFallback(t *testing.T) {
	backend := newTimelineBackend(ms(1, "sprint", "2025-03-01"))
	srv := backend.server(t)
	defer srv.Close()

	p := NewTimelineProjection(New(srv.URL, "t"), "g1")
	p.Load(context.Background())

	// The refetched list carries the embedded items.
	backend.mu.Lock()
	backend.milestones[0]["items"] = []map[string]any{{"backlogItemId": "b1", "title": "task"}}
	backend.mu.Unlock()

	items, err := p.DrillDown(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].ID)
}

func TestDrillDownBacklogScanByID(t *testing.T) {
	backend := newTimelineBackend(ms(1, "sprint", "2025-03-01"))
	backend.backlog = []map[string]any{
		{"backlogItemId": "b1", "title": "mine", "milestoneId": 1},
		{"backlogItemId": "b2", "title": "other", "milestoneId": 9},
		{"backlogItemId": "b3", "title": "unassigned"},
	}
	srv := backend.server(t)
	defer srv.Close()

	p := NewTimelineProjection(New(srv.URL, "t"), "g1")
	p.Load(context.Background())

	items, err := p.DrillDown(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "mine", items[0].Title)
}

func TestDrillDownBacklogScanByName(t *testing.T) {
	backend := newTimelineBackend(ms(1, "Sprint One", "2025-03-01"))
	backend.backlog = []map[string]any{
		{"backlogItemId": "b1", "title": "  sprint one  "},
		{"backlogItemId": "b2", "title": "something else"},
	}
	srv := backend.server(t)
	defer srv.Close()

	p := NewTimelineProjection(New(srv.URL, "t"), "g1")
	p.Load(context.Background())

	// No id matches anywhere, so matching falls back to normalized names.
	items, err := p.DrillDown(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b1", items[0].ID)
}

func TestDrillDownPagination(t *testing.T) {
	m := ms(1, "sprint", "2025-03-01")
	var embedded []map[string]any
	for i := 0; i < 8; i++ {
		embedded = append(embedded, map[string]any{"backlogItemId": "b", "title": "task"})
	}
	m["items"] = embedded
	backend := newTimelineBackend(m)
	srv := backend.server(t)
	defer srv.Close()

	p := NewTimelineProjection(New(srv.URL, "t"), "g1")
	p.Load(context.Background())

	_, err := p.DrillDown(context.Background(), "1")
	require.NoError(t, err)

	assert.Equal(t, 2, p.ItemPageCount())
	assert.Len(t, p.ItemPage(), DefaultItemPageSize)

	p.SetItemPage(1)
	assert.Len(t, p.ItemPage(), 3)

	p.SetItemPageSize(4)
	assert.Equal(t, 2, p.ItemPageCount())
	assert.Len(t, p.ItemPage(), 4)
}
