package domain

// Doc is a free-form note with optional tags used for filtering.
type Doc struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Normalize coerces fields that older persisted records may lack.
// Docs written before tags existed come back with a nil slice.
func (d *Doc) Normalize() {
	if d.Tags == nil {
		d.Tags = []string{}
	}
}
