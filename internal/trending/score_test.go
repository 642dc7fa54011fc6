package trending

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

func TestComputeScoreBounds(t *testing.T) {
	score, err := ComputeScore(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	score, err = ComputeScore(MaxViews, MaxClicks)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, score, 1e-9)

	score, err = ComputeScore(math.MaxInt64, math.MaxInt64)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, score, 1e-9)
}

func TestComputeScoreWeights(t *testing.T) {
	score, err := ComputeScore(MaxViews, 0)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, score, 1e-9)

	score, err = ComputeScore(0, MaxClicks)
	require.NoError(t, err)
	assert.InDelta(t, 70.0, score, 1e-9)

	score, err = ComputeScore(5000, 500)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, score, 1e-9)
}

func TestComputeScoreRejectsNegativeInput(t *testing.T) {
	for _, tc := range []struct{ views, clicks int64 }{{-1, 0}, {0, -1}, {-5, -5}} {
		_, err := ComputeScore(tc.views, tc.clicks)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
	}
}

func TestComputeScoreMonotonic(t *testing.T) {
	steps := []int64{0, 1, 10, 250, 999, 1000, 1001, 5000, 9999, 10000, 20000}
	for _, clicks := range steps {
		prev := -1.0
		for _, views := range steps {
			score, err := ComputeScore(views, clicks)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, prev, "views=%d clicks=%d", views, clicks)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 100.0)
			prev = score
		}
	}
	for _, views := range steps {
		prev := -1.0
		for _, clicks := range steps {
			score, err := ComputeScore(views, clicks)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, score, prev, "views=%d clicks=%d", views, clicks)
			prev = score
		}
	}
}

func TestComputeScoreIsIdempotent(t *testing.T) {
	a, err := ComputeScore(1234, 56)
	require.NoError(t, err)
	b, err := ComputeScore(1234, 56)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRefreshStampsUpdateTime(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	tr := models.Trending{Views: 10000, Clicks: 1000}
	require.NoError(t, Refresh(&tr, now))
	assert.InDelta(t, 100.0, tr.Score, 1e-9)
	assert.Equal(t, now, tr.LastTrendingUpdate)

	bad := models.Trending{Views: -1}
	assert.Error(t, Refresh(&bad, now))
	assert.True(t, bad.LastTrendingUpdate.IsZero())
}
