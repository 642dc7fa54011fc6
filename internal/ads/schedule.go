package ads

import (
	"fmt"
	"sync"
	"time"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

var locations sync.Map

// location resolves an IANA zone name, falling back to UTC for unknown names.
func location(name string) *time.Location {
	if name == "" {
		name = models.DefaultTimezone
	}
	if cached, ok := locations.Load(name); ok {
		return cached.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = time.UTC
	}
	locations.Store(name, loc)
	return loc
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(value string) (int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("%w: time of day %q must be HH:MM", apperr.ErrInvalidArgument, value)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// inHourRange checks [start, end) against local time of day. A window whose
// end is not after its start wraps past midnight. Unparseable windows never
// match.
func inHourRange(r models.HourRange, local time.Time) bool {
	start, err := ParseClock(r.Start)
	if err != nil {
		return false
	}
	end, err := ParseClock(r.End)
	if err != nil {
		return false
	}
	minute := local.Hour()*60 + local.Minute()
	if start < end {
		return minute >= start && minute < end
	}
	return minute >= start || minute < end
}

var weekdays = map[string]struct{}{
	"monday": {}, "tuesday": {}, "wednesday": {}, "thursday": {},
	"friday": {}, "saturday": {}, "sunday": {},
}

// ValidateSchedule rejects schedules an admin should not be able to store.
func ValidateSchedule(s models.Schedule) error {
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return fmt.Errorf("%w: schedule startDate and endDate are required", apperr.ErrInvalidArgument)
	}
	if s.EndDate.Before(s.StartDate) {
		return fmt.Errorf("%w: schedule endDate is before startDate", apperr.ErrInvalidArgument)
	}
	for _, d := range s.Days {
		if _, ok := weekdays[d]; !ok {
			return fmt.Errorf("%w: unknown schedule day %q", apperr.ErrInvalidArgument, d)
		}
	}
	if s.Hours != nil {
		if _, err := ParseClock(s.Hours.Start); err != nil {
			return err
		}
		if _, err := ParseClock(s.Hours.End); err != nil {
			return err
		}
	}
	if s.Timezone != "" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("%w: unknown timezone %q", apperr.ErrInvalidArgument, s.Timezone)
		}
	}
	return nil
}

// ValidatePriority enforces the 1-10 range.
func ValidatePriority(p int) error {
	if p < 1 || p > 10 {
		return fmt.Errorf("%w: priority %d must be between 1 and 10", apperr.ErrInvalidArgument, p)
	}
	return nil
}
