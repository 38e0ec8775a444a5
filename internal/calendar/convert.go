package calendar

import (
	"time"

	"github.com/alexanderramin/pointer/internal/domain"
)

// RemoteIDPrefix prefixes the local id of every event imported from
// Google, keeping imported ids disjoint from locally created ones.
const RemoteIDPrefix = "google_"

// ToLocal converts a remote event into the local shape. Timed events
// keep their own offset: the date and HH:MM clock are taken from the
// parsed start as-is. All-day events carry a date only.
func ToLocal(re RemoteEvent) domain.CalendarEvent {
	ev := domain.CalendarEvent{
		ID:          RemoteIDPrefix + re.ID,
		Title:       re.Summary,
		Description: re.Description,
		Color:       domain.DefaultEventColor,
		RemoteID:    re.ID,
		Remote:      true,
	}

	if re.Start.DateTime != "" {
		if start, err := time.Parse(time.RFC3339, re.Start.DateTime); err == nil {
			ev.Date = start.Format("2006-01-02")
			ev.Time = start.Format("15:04")
		}
	} else {
		ev.Date = re.Start.Date
	}

	return ev
}
