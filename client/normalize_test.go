package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMilestoneListEnvelopes(t *testing.T) {
	record := `{"milestoneId": 7, "name": "Sprint 1"}`

	tests := []struct {
		name string
		body string
	}{
		{"bare array", `[` + record + `]`},
		{"milestones envelope", `{"milestones": [` + record + `]}`},
		{"data wrapper", `{"data": {"milestones": [` + record + `]}}`},
		{"data array", `{"data": [` + record + `]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			milestones := decodeMilestoneList([]byte(tt.body))
			require.Len(t, milestones, 1)
			assert.Equal(t, "7", milestones[0].ID)
			assert.Equal(t, "Sprint 1", milestones[0].Name)
		})
	}
}

func TestDecodeMilestoneListUnknownEnvelope(t *testing.T) {
	assert.Empty(t, decodeMilestoneList([]byte(`{"something":"else"}`)))
	assert.Empty(t, decodeMilestoneList([]byte(`not json`)))
}

func TestNormalizeMilestoneIDVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"milestoneId number", `{"milestoneId": 12}`, "12"},
		{"milestoneId string", `{"milestoneId": "12"}`, "12"},
		{"plain id", `{"id": 3}`, "3"},
		{"underscore id", `{"_id": "abc123"}`, "abc123"},
		{"milestoneId wins over id", `{"milestoneId": 1, "id": 2, "_id": "x"}`, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := decodeMilestone([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.ID)
		})
	}
}

func TestNormalizeMilestoneItemFieldVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"items", `{"milestoneId": 1, "items": [{"backlogItemId": "b1", "title": "task"}]}`},
		{"backlogItems", `{"milestoneId": 1, "backlogItems": [{"id": "b1", "name": "task"}]}`},
		{"tasks", `{"milestoneId": 1, "tasks": [{"_id": "b1", "title": "task"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := decodeMilestone([]byte(tt.body))
			require.NoError(t, err)
			require.Len(t, m.Items, 1)
			assert.Equal(t, "b1", m.Items[0].ID)
			assert.Equal(t, "task", m.Items[0].Title)
		})
	}
}

func TestNormalizeMilestoneStatusSynonym(t *testing.T) {
	m, err := decodeMilestone([]byte(`{"milestoneId": 1, "status": "completed"}`))
	require.NoError(t, err)
	assert.Equal(t, "done", m.Status)
}

func TestNormalizeOverdueBackendFlagWins(t *testing.T) {
	// Past date with incomplete items, but the backend says not overdue.
	body := `{"milestoneId": 1, "targetDate": "2020-01-01", "completedItems": 0, "totalItems": 3, "isOverdue": false}`
	m, err := decodeMilestone([]byte(body))
	require.NoError(t, err)
	assert.False(t, m.IsOverdue)

	// Future date, but the backend says overdue.
	body = `{"milestoneId": 1, "targetDate": "2099-01-01", "isOverdue": true}`
	m, err = decodeMilestone([]byte(body))
	require.NoError(t, err)
	assert.True(t, m.IsOverdue)
}

func TestNormalizeOverdueHeuristicFallback(t *testing.T) {
	// No backend flag: past target plus incomplete items means overdue.
	body := `{"milestoneId": 1, "targetDate": "2020-01-01", "completedItems": 1, "totalItems": 3}`
	m, err := decodeMilestone([]byte(body))
	require.NoError(t, err)
	assert.True(t, m.IsOverdue)

	body = `{"milestoneId": 1, "targetDate": "2020-01-01", "completedItems": 3, "totalItems": 3}`
	m, err = decodeMilestone([]byte(body))
	require.NoError(t, err)
	assert.False(t, m.IsOverdue)

	// Unparseable dates read as absent and never trip the heuristic.
	body = `{"milestoneId": 1, "targetDate": "whenever", "completedItems": 0, "totalItems": 3}`
	m, err = decodeMilestone([]byte(body))
	require.NoError(t, err)
	assert.False(t, m.IsOverdue)
	assert.Equal(t, "--", m.TargetDate.String())
}

func TestNormalizeNameFallsBackToTitle(t *testing.T) {
	m, err := decodeMilestone([]byte(`{"milestoneId": 1, "title": "Release"}`))
	require.NoError(t, err)
	assert.Equal(t, "Release", m.Name)
}

func TestDecodeBacklogListEnvelopes(t *testing.T) {
	record := `{"backlogItemId": "b1", "title": "task", "milestoneId": 4}`

	for _, body := range []string{
		`[` + record + `]`,
		`{"items": [` + record + `]}`,
		`{"backlog": [` + record + `]}`,
		`{"data": {"items": [` + record + `]}}`,
	} {
		items := decodeBacklogList([]byte(body))
		require.Len(t, items, 1, "body: %s", body)
		assert.Equal(t, "b1", items[0].ID)
		assert.Equal(t, "4", items[0].MilestoneID)
	}
}

func TestFlexIDMarshal(t *testing.T) {
	data, err := FlexID("42").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "42", string(data))

	data, err = FlexID("abc").MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"abc"`, string(data))
}
