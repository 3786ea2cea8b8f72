// internal/membership/domain.go
package membership

import (
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("membership not found")
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Membership links a user to a status and a position.
type Membership struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Status    string    `json:"status"`
	Position  string    `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInput holds the client-writable fields of a new membership.
// The owning user is never taken from client input.
type CreateInput struct {
	Status   string
	Position string
}

// NewMembership is the row handed to a Store on create.
type NewMembership struct {
	UserID   int64
	Status   string
	Position string
}

// Optional is a value that may or may not have been supplied.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns an Optional carrying v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Patch is a partial update. Unset fields are left unchanged.
type Patch struct {
	UserID   Optional[int64]
	Status   Optional[string]
	Position Optional[string]
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return !p.UserID.Set && !p.Status.Set && !p.Position.Set
}

// Apply returns a copy of m with the patch merged in.
func (p Patch) Apply(m Membership) Membership {
	if p.UserID.Set {
		m.UserID = p.UserID.Value
	}
	if p.Status.Set {
		m.Status = p.Status.Value
	}
	if p.Position.Set {
		m.Position = p.Position.Value
	}
	return m
}
