package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teammy/internal/model"
)

func strPtr(s string) *string { return &s }

func TestApplyMilestoneUpdateCompletedAtRequiresDone(t *testing.T) {
	m := &model.Milestone{Name: "Alpha", Status: model.MilestoneStatusPlanned}

	err := applyMilestoneUpdate(m, &model.MilestoneUpdate{CompletedAt: strPtr("2025-06-01")})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, m.CompletedAt)

	// Normalization applies first, so a status change away from done in the
	// same request also rejects the timestamp.
	m = &model.Milestone{Name: "Alpha", Status: model.MilestoneStatusDone}
	err = applyMilestoneUpdate(m, &model.MilestoneUpdate{
		Status:      strPtr("in_progress"),
		CompletedAt: strPtr("2025-06-01"),
	})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, m.CompletedAt)
}

func TestApplyMilestoneUpdateCompletedAtWithDone(t *testing.T) {
	m := &model.Milestone{Name: "Alpha", Status: model.MilestoneStatusPlanned}

	err := applyMilestoneUpdate(m, &model.MilestoneUpdate{
		Status:      strPtr("completed"),
		CompletedAt: strPtr("2025-06-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, model.MilestoneStatusDone, m.Status)
	require.NotNil(t, m.CompletedAt)
	assert.Equal(t, "2025-06-01", m.CompletedAt.Format("2006-01-02"))
}

func TestApplyMilestoneUpdateDoneStampsCompletion(t *testing.T) {
	m := &model.Milestone{Name: "Alpha", Status: model.MilestoneStatusInProgress}

	require.NoError(t, applyMilestoneUpdate(m, &model.MilestoneUpdate{Status: strPtr("done")}))
	require.NotNil(t, m.CompletedAt)
	assert.WithinDuration(t, time.Now(), *m.CompletedAt, time.Minute)

	// Reopening clears the stamp.
	require.NoError(t, applyMilestoneUpdate(m, &model.MilestoneUpdate{Status: strPtr("planned")}))
	assert.Nil(t, m.CompletedAt)
}

func TestApplyMilestoneUpdateName(t *testing.T) {
	m := &model.Milestone{Name: "Alpha", Status: model.MilestoneStatusPlanned}

	err := applyMilestoneUpdate(m, &model.MilestoneUpdate{Name: strPtr("   ")})
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, applyMilestoneUpdate(m, &model.MilestoneUpdate{Name: strPtr("  Beta  ")}))
	assert.Equal(t, "Beta", m.Name)
}

func TestApplyMilestoneUpdateTargetDate(t *testing.T) {
	m := &model.Milestone{Name: "Alpha", Status: model.MilestoneStatusPlanned}

	err := applyMilestoneUpdate(m, &model.MilestoneUpdate{TargetDate: strPtr("2020-01-01")})
	assert.ErrorIs(t, err, ErrValidation)

	today := model.Today().String()
	require.NoError(t, applyMilestoneUpdate(m, &model.MilestoneUpdate{TargetDate: strPtr(today)}))
	assert.Equal(t, today, m.TargetDate.String())

	// Empty string clears the date.
	require.NoError(t, applyMilestoneUpdate(m, &model.MilestoneUpdate{TargetDate: strPtr("")}))
	assert.True(t, m.TargetDate.IsZero())
}
