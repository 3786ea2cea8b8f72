// internal/membership/projection.go
package membership

import "time"

// TimestampLayout is the wire format of created_at and updated_at.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Resource is the public JSON shape of a membership.
type Resource struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"user_id"`
	Status    string `json:"status"`
	Position  string `json:"position"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Project maps a stored membership to its public shape.
func Project(m *Membership) Resource {
	return Resource{
		ID:        m.ID,
		UserID:    m.UserID,
		Status:    m.Status,
		Position:  m.Position,
		CreatedAt: formatTimestamp(m.CreatedAt),
		UpdatedAt: formatTimestamp(m.UpdatedAt),
	}
}

// ProjectAll maps a list, returning an empty (non-nil) slice for no rows.
func ProjectAll(ms []*Membership) []Resource {
	out := make([]Resource, 0, len(ms))
	for _, m := range ms {
		out = append(out, Project(m))
	}
	return out
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimestampLayout)
}
