package ads

import (
	"time"

	"trendhub/internal/models"
)

// CTR is clicks per hundred impressions, 0 without impressions.
func CTR(clicks, impressions int64) float64 {
	if impressions <= 0 {
		return 0
	}
	return float64(clicks) / float64(impressions) * 100
}

// TrackImpression counts one impression on an in-memory copy. Persisted
// tracking goes through the store's atomic update instead; this mirrors it
// for callers holding a document. Not safe to retry: every call counts.
func TrackImpression(a *models.AdAnalytics, now time.Time) {
	a.Impressions++
	a.CTR = CTR(a.Clicks, a.Impressions)
	a.LastTracked = now
}

// TrackClick counts one click, see TrackImpression.
func TrackClick(a *models.AdAnalytics, now time.Time) {
	a.Clicks++
	a.CTR = CTR(a.Clicks, a.Impressions)
	a.LastTracked = now
}
