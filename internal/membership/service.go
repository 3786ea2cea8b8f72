// internal/membership/service.go
package membership

import (
	"context"

	"membershipd/internal/auth"
)

// Service defines the interface for the membership service.
type Service interface {
	List(ctx context.Context) ([]*Membership, error)
	Create(ctx context.Context, who auth.Identity, in CreateInput) (*Membership, error)
	Get(ctx context.Context, id int64) (*Membership, error)
	Update(ctx context.Context, id int64, patch Patch) (*Membership, error)
	Delete(ctx context.Context, id int64) error
}

// Store is durable CRUD access to membership rows.
// Find, Update and Delete return ErrNotFound for an unknown id.
type Store interface {
	All(ctx context.Context) ([]*Membership, error)
	Create(ctx context.Context, m NewMembership) (*Membership, error)
	Find(ctx context.Context, id int64) (*Membership, error)
	Update(ctx context.Context, id int64, patch Patch) (*Membership, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}
