package domain

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Task is a single to-do entry. DueDate and Notes are optional.
type Task struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Completed bool         `json:"completed"`
	Priority  TaskPriority `json:"priority"`
	DueDate   string       `json:"dueDate,omitempty"`
	CreatedAt string       `json:"createdAt"`
	Notes     string       `json:"notes,omitempty"`
}

// Normalize coerces fields that may be absent in older persisted records.
func (t *Task) Normalize() {
	t.Priority = TaskPriority(CoalesceStr(string(t.Priority), string(PriorityMedium)))
	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		t.Priority = PriorityMedium
	}
}
