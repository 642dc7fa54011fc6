// Package ads decides which advertisements are eligible for a slot right now
// and keeps the impression/click analytics arithmetic.
package ads

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"trendhub/internal/models"
)

// Context describes the viewer an ad is being selected for. Empty fields are
// unknown.
type Context struct {
	Device   models.Device
	Location string
	Category models.Category
	Now      time.Time
}

// Select filters ads down to the ones eligible for position under ctx and
// orders them by priority (highest first), newest first on ties.
func Select(all []models.Advertisement, position models.AdPosition, ctx Context) []models.Advertisement {
	out := make([]models.Advertisement, 0, len(all))
	for _, ad := range all {
		if ad.Position != position {
			continue
		}
		if !Eligible(ad, ctx) {
			continue
		}
		out = append(out, ad)
	}
	Rank(out)
	return out
}

// Eligible applies every filter except the position match.
func Eligible(ad models.Advertisement, ctx Context) bool {
	if !ad.IsCurrentlyActive(ctx.Now) {
		return false
	}

	local := ctx.Now.In(location(ad.Schedule.Timezone))
	if len(ad.Schedule.Days) > 0 && !containsFold(ad.Schedule.Days, strings.ToLower(local.Weekday().String())) {
		return false
	}
	if ad.Schedule.Hours != nil && !inHourRange(*ad.Schedule.Hours, local) {
		return false
	}

	if !matchesCategory(ad.Targeting.Categories, ctx.Category) {
		return false
	}
	if len(ad.Targeting.Devices) > 0 && !containsDevice(ad.Targeting.Devices, ctx.Device) {
		return false
	}
	if len(ad.Targeting.Locations) > 0 && !containsFold(ad.Targeting.Locations, strings.TrimSpace(ctx.Location)) {
		return false
	}
	return true
}

// Rank sorts in place: priority descending, then createdAt descending, then
// id descending so the order never depends on storage iteration.
func Rank(list []models.Advertisement) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) > 0
	})
}

func matchesCategory(targets []models.TargetCategory, category models.Category) bool {
	if len(targets) == 0 || category == "" {
		return true
	}
	for _, t := range targets {
		if models.Category(t) == models.CategoryAll || models.Category(t) == category {
			return true
		}
	}
	return false
}

func containsDevice(devices []models.Device, device models.Device) bool {
	if device == "" {
		return false
	}
	for _, d := range devices {
		if d == device {
			return true
		}
	}
	return false
}

func containsFold(values []string, needle string) bool {
	if needle == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), needle) {
			return true
		}
	}
	return false
}
