// Package trending computes the 0-100 popularity score of a product from its
// view and click counters.
package trending

import (
	"fmt"
	"time"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

const (
	MaxViews  = 10000
	MaxClicks = 1000

	ViewWeight  = 0.3
	ClickWeight = 0.7
)

// ComputeScore normalizes views against MaxViews and clicks against
// MaxClicks, clamps each to [0,1] and combines them 30/70.
func ComputeScore(views, clicks int64) (float64, error) {
	if views < 0 || clicks < 0 {
		return 0, fmt.Errorf("%w: views=%d clicks=%d must be non-negative", apperr.ErrInvalidArgument, views, clicks)
	}

	normalizedViews := clamp(float64(views)/MaxViews) * 100
	normalizedClicks := clamp(float64(clicks)/MaxClicks) * 100

	return normalizedViews*ViewWeight + normalizedClicks*ClickWeight, nil
}

// Refresh recomputes t.Score from its counters and stamps LastTrendingUpdate.
func Refresh(t *models.Trending, now time.Time) error {
	score, err := ComputeScore(t.Views, t.Clicks)
	if err != nil {
		return err
	}
	t.Score = score
	t.LastTrendingUpdate = now
	return nil
}

func clamp(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}
