package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teammy/internal/model"
)

func TestParseFutureDate(t *testing.T) {
	today := model.Today()

	t.Run("today is accepted", func(t *testing.T) {
		d, err := parseFutureDate("targetDate", today.String())
		require.NoError(t, err)
		assert.Equal(t, today.String(), d.String())
	})

	t.Run("tomorrow is accepted", func(t *testing.T) {
		_, err := parseFutureDate("targetDate", today.AddDays(1).String())
		assert.NoError(t, err)
	})

	t.Run("yesterday is rejected", func(t *testing.T) {
		_, err := parseFutureDate("targetDate", today.AddDays(-1).String())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		_, err := parseFutureDate("targetDate", "soon")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestValidationErrorCarriesField(t *testing.T) {
	_, err := parseFutureDate("newTargetDate", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newTargetDate")
}
