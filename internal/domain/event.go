package domain

// DefaultEventColor is applied to events imported from the remote calendar
// and to persisted events missing a color tag.
const DefaultEventColor = "bg-blue-500"

// CalendarEvent is a single calendar entry. Events imported from Google
// Calendar carry the remote event id and the remote-origin flag; purely
// local events have neither until a sync pushes them out.
//
// The JSON field names match what the browser already stores, so a local
// collection written by an older build round-trips unchanged.
type CalendarEvent struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"` // YYYY-MM-DD
	Time        string `json:"time"` // HH:MM, empty means all-day
	Color       string `json:"color"`
	RemoteID    string `json:"googleEventId,omitempty"`
	Remote      bool   `json:"isGoogleEvent,omitempty"`
}

// Normalize coerces fields that older persisted records may lack.
func (e *CalendarEvent) Normalize() {
	e.Color = CoalesceStr(e.Color, DefaultEventColor)
}
