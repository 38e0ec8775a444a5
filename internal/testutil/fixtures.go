package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/pointer/internal/domain"
)

// Task options
type TaskOption func(*domain.Task)

func WithPriority(p domain.TaskPriority) TaskOption {
	return func(t *domain.Task) { t.Priority = p }
}

func WithDueDate(d string) TaskOption {
	return func(t *domain.Task) { t.DueDate = d }
}

func WithCompleted() TaskOption {
	return func(t *domain.Task) { t.Completed = true }
}

// NewTask builds a valid task with a fresh id.
func NewTask(title string, opts ...TaskOption) domain.Task {
	task := domain.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Priority:  domain.PriorityMedium,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, opt := range opts {
		opt(&task)
	}
	return task
}

// Doc options
type DocOption func(*domain.Doc)

func WithTags(tags ...string) DocOption {
	return func(d *domain.Doc) { d.Tags = tags }
}

func WithContent(content string) DocOption {
	return func(d *domain.Doc) { d.Content = content }
}

// NewDoc builds a valid doc with a fresh id and an empty tag list.
func NewDoc(title string, opts ...DocOption) domain.Doc {
	doc := domain.Doc{
		ID:    uuid.NewString(),
		Title: title,
		Tags:  []string{},
	}
	for _, opt := range opts {
		opt(&doc)
	}
	return doc
}

// Event options
type EventOption func(*domain.CalendarEvent)

func WithTime(clock string) EventOption {
	return func(e *domain.CalendarEvent) { e.Time = clock }
}

func WithRemoteID(id string) EventOption {
	return func(e *domain.CalendarEvent) {
		e.RemoteID = id
		e.Remote = true
	}
}

// NewEvent builds a valid calendar event with a fresh id and the default
// color.
func NewEvent(title, date string, opts ...EventOption) domain.CalendarEvent {
	ev := domain.CalendarEvent{
		ID:    uuid.NewString(),
		Title: title,
		Date:  date,
		Color: domain.DefaultEventColor,
	}
	for _, opt := range opts {
		opt(&ev)
	}
	return ev
}
