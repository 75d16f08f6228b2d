package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier captures notices for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	notices []string
	levels  []NoticeLevel
}

func (n *recordingNotifier) Notify(level NoticeLevel, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.levels = append(n.levels, level)
	n.notices = append(n.notices, message)
}

func (n *recordingNotifier) last() (NoticeLevel, string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return "", ""
	}
	return n.levels[len(n.levels)-1], n.notices[len(n.notices)-1]
}

// fakeBackend is an in-memory milestone store behind the real HTTP
// surface, enough to exercise the controllers end to end.
type fakeBackend struct {
	mu         sync.Mutex
	nextID     int
	milestones map[string]map[string]any
	requests   []string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 1, milestones: map[string]map[string]any{}}
}

func (b *fakeBackend) countRequests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func (b *fakeBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("GET /groups/{groupId}/milestones", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		b.mu.Lock()
		list := []map[string]any{}
		for _, m := range b.milestones {
			list = append(list, m)
		}
		b.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"milestones": list})
	})

	mux.HandleFunc("POST /groups/{groupId}/milestones", func(w http.ResponseWriter, r *http.Request) {
		b.record(r)
		var payload map[string]any
		json.NewDecoder(r.Body).Decode(&payload)

		b.mu.Lock()
		id := b.nextID
		b.nextID++
		m := map[string]any{
			"milestoneId": id,
			"name":        payload["name"],
			"targetDate":  payload["targetDate"],
			"status":      "planned",
		}
		b.milestones[strconv.Itoa(id)] = m
		b.mu.Unlock()

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(m)
	})

	return httptest.NewServer(mux)
}

func (b *fakeBackend) record(r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
}


func TestCreateThenListRoundTrip(t *testing.T) {
	backend := newFakeBackend()
	srv := backend.server(t)
	defer srv.Close()

	c := New(srv.URL, "token")
	ctx := context.Background()

	created, err := c.CreateMilestone(ctx, "g1", MilestoneCreatePayload{
		Name:       "Sprint 1",
		TargetDate: "2099-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sprint 1", created.Name)

	milestones, err := c.ListMilestones(ctx, "g1")
	require.NoError(t, err)
	require.Len(t, milestones, 1)
	assert.Equal(t, "Sprint 1", milestones[0].Name)
	assert.Equal(t, "2099-06-01", milestones[0].TargetDate.String())
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "name is required"})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.ListMilestones(context.Background(), "g1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "name is required", apiErr.Message)
	assert.Equal(t, "name is required", failureMessage(err))
}

func TestFailureMessageFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	_, err := c.ListMilestones(context.Background(), "g1")
	require.Error(t, err)
	assert.Equal(t, genericFailure, failureMessage(err))
}

func TestClientSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"milestones": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-token")
	_, err := c.ListMilestones(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
}
