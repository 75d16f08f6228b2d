package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"teammy/internal/model"
)

// overdueBackend serves a mutable overdue snapshot plus the extend and
// move endpoints.
type overdueBackend struct {
	mu       sync.Mutex
	snapshot map[string]any
	requests []string

	extendStatus int
	moveStatus   int
}

func newOverdueBackend() *overdueBackend {
	return &overdueBackend{
		snapshot: map[string]any{
			"isOverdue":       true,
			"totalItems":      5,
			"completedItems":  2,
			"incompleteItems": 3,
			"overdueItems":    1,
		},
		extendStatus: http.StatusOK,
		moveStatus:   http.StatusOK,
	}
}

func (b *overdueBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /groups/{groupId}/tracking/milestones/{milestoneId}/overdue-actions", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.snapshot)
	})

	mux.HandleFunc("POST /groups/{groupId}/tracking/milestones/{milestoneId}/extend", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		var body struct {
			NewTargetDate string `json:"newTargetDate"`
		}
		json.NewDecoder(r.Body).Decode(&body)

		b.mu.Lock()
		defer b.mu.Unlock()
		if b.extendStatus >= 400 {
			w.WriteHeader(b.extendStatus)
			json.NewEncoder(w).Encode(map[string]string{"error": "extend rejected"})
			return
		}
		// After an extend the milestone is no longer overdue.
		b.snapshot["isOverdue"] = false
		b.snapshot["targetDate"] = body.NewTargetDate
		w.WriteHeader(b.extendStatus)
	})

	mux.HandleFunc("POST /groups/{groupId}/tracking/milestones/{milestoneId}/move-tasks", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		defer b.mu.Unlock()
		if b.moveStatus >= 400 {
			w.WriteHeader(b.moveStatus)
			json.NewEncoder(w).Encode(map[string]string{"error": "move rejected"})
			return
		}
		b.snapshot["incompleteItems"] = 0
		w.WriteHeader(b.moveStatus)
	})

	return httptest.NewServer(mux)
}

func (b *overdueBackend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
}

func (b *overdueBackend) countRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func testEngine(t *testing.T) (*OverdueResolutionEngine, *overdueBackend, *recordingNotifier, func()) {
	t.Helper()
	backend := newOverdueBackend()
	srv := backend.server(t)
	notifier := &recordingNotifier{}
	engine := NewOverdueResolutionEngine(New(srv.URL, "t"), notifier, nil)
	return engine, backend, notifier, srv.Close
}

func TestEngineActivateFetchesSnapshot(t *testing.T) {
	engine, _, _, done := testEngine(t)
	defer done()

	assert.Equal(t, StateIdle, engine.State())

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})

	assert.Equal(t, StateSnapshotReady, engine.State())
	assert.True(t, engine.ShowResolvePanel())
	assert.Equal(t, 3, engine.Snapshot().IncompleteItems)
}

func TestEngineSkipsActivationWithoutMilestone(t *testing.T) {
	engine, backend, _, done := testEngine(t)
	defer done()

	// Create mode: no milestone id, no snapshot fetch.
	engine.Activate(context.Background(), "g1", Milestone{})

	assert.Equal(t, StateIdle, engine.State())
	assert.Equal(t, 0, backend.countRequests())
}

func TestEnginePanelHiddenWhenNotOverdue(t *testing.T) {
	engine, backend, _, done := testEngine(t)
	defer done()

	backend.snapshot["isOverdue"] = false
	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})

	assert.Equal(t, StateSnapshotReady, engine.State())
	assert.False(t, engine.ShowResolvePanel())
}

func TestEnginePanelHiddenWithoutIncompleteItems(t *testing.T) {
	engine, backend, _, done := testEngine(t)
	defer done()

	backend.snapshot["incompleteItems"] = 0
	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})

	assert.False(t, engine.ShowResolvePanel())
}

func TestEngineDeactivateResets(t *testing.T) {
	engine, _, _, done := testEngine(t)
	defer done()

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})
	engine.Deactivate()

	assert.Equal(t, StateIdle, engine.State())
	assert.Zero(t, engine.Snapshot())
	assert.Empty(t, engine.DateInput())
}

func TestEngineSnapshotErrorAndRetry(t *testing.T) {
	backend := newOverdueBackend()
	srv := backend.server(t)
	defer srv.Close()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "snapshot unavailable"})
	}))

	notifier := &recordingNotifier{}
	engine := NewOverdueResolutionEngine(New(failing.URL, "t"), notifier, nil)

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})
	assert.Equal(t, StateSnapshotError, engine.State())
	assert.Equal(t, "snapshot unavailable", engine.FetchError())
	failing.Close()

	// Retry against a healthy backend succeeds.
	engine.client.BaseURL = srv.URL
	engine.Retry(context.Background())
	assert.Equal(t, StateSnapshotReady, engine.State())
	assert.Empty(t, engine.FetchError())
}

func TestQuickPickBaseFutureTargetDate(t *testing.T) {
	engine, _, _, done := testEngine(t)
	defer done()

	future := model.Today().AddDays(30)
	engine.Activate(context.Background(), "g1", Milestone{ID: "1", TargetDate: future})

	assert.Equal(t, future.String(), engine.QuickPickBase().String())

	engine.QuickPickPlusWeeks(1)
	assert.Equal(t, future.AddDays(7).String(), engine.DateInput())

	engine.QuickPickPlusWeeks(2)
	assert.Equal(t, future.AddDays(14).String(), engine.DateInput())
}

func TestQuickPickBasePastTargetDate(t *testing.T) {
	engine, _, _, done := testEngine(t)
	defer done()

	past, _ := model.ParseDate("2024-01-01")
	engine.Activate(context.Background(), "g1", Milestone{ID: "1", TargetDate: past})

	today := model.Today()
	assert.Equal(t, today.String(), engine.QuickPickBase().String())

	engine.QuickPickPlusWeeks(1)
	assert.Equal(t, today.AddDays(7).String(), engine.DateInput())
}

func TestQuickPickEndOfMonth(t *testing.T) {
	engine, backend, _, done := testEngine(t)
	defer done()

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})
	before := backend.countRequests()

	engine.QuickPickEndOfMonth()

	assert.Equal(t, model.EndOfMonth(model.Today()).String(), engine.DateInput())
	// Quick picks only populate the field, they never submit.
	assert.Equal(t, before, backend.countRequests())
}

func TestExtendRejectsPastDateWithoutNetworkCall(t *testing.T) {
	engine, backend, notifier, done := testEngine(t)
	defer done()

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})
	before := backend.countRequests()

	engine.SetDateInput(model.Today().AddDays(-1).String())
	engine.Extend(context.Background())

	assert.Equal(t, before, backend.countRequests())
	assert.Equal(t, StateSnapshotReady, engine.State())
	level, msg := notifier.last()
	assert.Equal(t, NoticeInfo, level)
	assert.Contains(t, msg, "past")
}

func TestExtendAcceptsTodayAndRefetches(t *testing.T) {
	refreshed := false
	backend := newOverdueBackend()
	srv := backend.server(t)
	defer srv.Close()

	notifier := &recordingNotifier{}
	engine := NewOverdueResolutionEngine(New(srv.URL, "t"), notifier, func() { refreshed = true })

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})
	assert.True(t, engine.Snapshot().IsOverdue)

	engine.SetDateInput(model.Today().String())
	engine.Extend(context.Background())

	assert.Equal(t, StateSnapshotReady, engine.State())
	assert.Empty(t, engine.DateInput())
	assert.True(t, refreshed)
	// The re-fetched snapshot reflects the extend, never a stale copy.
	assert.False(t, engine.Snapshot().IsOverdue)

	level, _ := notifier.last()
	assert.Equal(t, NoticeSuccess, level)
}

func TestExtendServerErrorKeepsSnapshot(t *testing.T) {
	engine, backend, notifier, done := testEngine(t)
	defer done()

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})
	backend.extendStatus = http.StatusBadRequest

	engine.SetDateInput(model.Today().String())
	engine.Extend(context.Background())

	assert.Equal(t, StateSnapshotReady, engine.State())
	level, msg := notifier.last()
	assert.Equal(t, NoticeError, level)
	assert.Equal(t, "extend rejected", msg)
}

func TestMoveToExistingRejectsSelfMove(t *testing.T) {
	engine, backend, notifier, done := testEngine(t)
	defer done()

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})
	before := backend.countRequests()

	ok := engine.MoveToExisting(context.Background(), "1")

	assert.False(t, ok)
	assert.Equal(t, before, backend.countRequests())
	_, msg := notifier.last()
	assert.Contains(t, msg, "same milestone")
}

func TestMoveToExistingSucceeds(t *testing.T) {
	refreshed := false
	backend := newOverdueBackend()
	srv := backend.server(t)
	defer srv.Close()

	engine := NewOverdueResolutionEngine(New(srv.URL, "t"), &recordingNotifier{}, func() { refreshed = true })
	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})

	ok := engine.MoveToExisting(context.Background(), "2")

	assert.True(t, ok)
	assert.True(t, refreshed)
	assert.Equal(t, 0, engine.Snapshot().IncompleteItems)
}

func TestMoveToNewValidatesInput(t *testing.T) {
	engine, backend, notifier, done := testEngine(t)
	defer done()

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})
	before := backend.countRequests()

	assert.False(t, engine.MoveToNew(context.Background(), "", model.Today().String(), ""))
	_, msg := notifier.last()
	assert.Contains(t, msg, "name")

	assert.False(t, engine.MoveToNew(context.Background(), "Next sprint", "", ""))
	assert.False(t, engine.MoveToNew(context.Background(), "Next sprint", model.Today().AddDays(-1).String(), ""))

	assert.Equal(t, before, backend.countRequests())
}

func TestMoveToNewSucceeds(t *testing.T) {
	engine, _, notifier, done := testEngine(t)
	defer done()

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})

	ok := engine.MoveToNew(context.Background(), "Next sprint", model.Today().AddDays(7).String(), "carried over")

	assert.True(t, ok)
	level, _ := notifier.last()
	assert.Equal(t, NoticeSuccess, level)
}

func TestMoveServerErrorLeavesEngineReady(t *testing.T) {
	engine, backend, notifier, done := testEngine(t)
	defer done()

	engine.Activate(context.Background(), "g1", Milestone{ID: "1"})
	backend.moveStatus = http.StatusConflict

	ok := engine.MoveToExisting(context.Background(), "2")

	assert.False(t, ok)
	assert.Equal(t, StateSnapshotReady, engine.State())
	level, msg := notifier.last()
	assert.Equal(t, NoticeError, level)
	assert.Equal(t, "move rejected", msg)
}
