// internal/membership/implementation.go
package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"membershipd/internal/auth"
)

const instrumentationName = "membershipd/membership"

// service implements the Service interface.
type service struct {
	store       Store
	rateLimiter *rate.Limiter
	tracer      trace.Tracer
	created     metric.Int64Counter
	updated     metric.Int64Counter
	deleted     metric.Int64Counter
}

// NewService creates a new membership service instance.
// A nil limiter disables create rate limiting.
func NewService(store Store, limiter *rate.Limiter) Service {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}
	meter := otel.Meter(instrumentationName)
	return &service{
		store:       store,
		rateLimiter: limiter,
		tracer:      otel.Tracer(instrumentationName),
		created:     counter(meter, "memberships.created", "Memberships created"),
		updated:     counter(meter, "memberships.updated", "Memberships updated"),
		deleted:     counter(meter, "memberships.deleted", "Memberships deleted"),
	}
}

// NewCreateLimiter allows perMinute creates per minute with the given burst.
// perMinute <= 0 means unlimited.
func NewCreateLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		return noop.Int64Counter{}
	}
	return c
}

// List returns every membership in store order.
func (s *service) List(ctx context.Context) ([]*Membership, error) {
	ctx, span := s.tracer.Start(ctx, "membership.list")
	defer span.End()

	ms, err := s.store.All(ctx)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("list memberships: %w", err))
	}
	span.SetAttributes(attribute.Int("membership.count", len(ms)))
	return ms, nil
}

// Create validates in and stores a membership owned by who.
func (s *service) Create(ctx context.Context, who auth.Identity, in CreateInput) (*Membership, error) {
	ctx, span := s.tracer.Start(ctx, "membership.create",
		trace.WithAttributes(attribute.Int64("user.id", who.ID)),
	)
	defer span.End()

	if !s.rateLimiter.Allow() {
		span.SetAttributes(attribute.Bool("rate.limited", true))
		return nil, ErrRateLimited
	}
	if err := in.Validate(); err != nil {
		span.SetAttributes(attribute.Bool("validation.failed", true))
		return nil, err
	}

	m, err := s.store.Create(ctx, NewMembership{
		UserID:   who.ID,
		Status:   in.Status,
		Position: in.Position,
	})
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("create membership: %w", err))
	}

	s.created.Add(ctx, 1)
	span.SetAttributes(attribute.Int64("membership.id", m.ID))
	log.FromContext(ctx).WithPrefix("membership").Debug("created", "id", m.ID, "user_id", m.UserID)
	return m, nil
}

// Get retrieves a membership by its ID.
func (s *service) Get(ctx context.Context, id int64) (*Membership, error) {
	ctx, span := s.tracer.Start(ctx, "membership.get",
		trace.WithAttributes(attribute.Int64("membership.id", id)),
	)
	defer span.End()

	m, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("get membership %d: %w", id, err))
	}
	return m, nil
}

// Update merges patch into the membership. No fields are validated.
func (s *service) Update(ctx context.Context, id int64, patch Patch) (*Membership, error) {
	ctx, span := s.tracer.Start(ctx, "membership.update",
		trace.WithAttributes(
			attribute.Int64("membership.id", id),
			attribute.Bool("patch.empty", patch.Empty()),
		),
	)
	defer span.End()

	m, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, s.fail(span, fmt.Errorf("update membership %d: %w", id, err))
	}

	if !patch.Empty() {
		s.updated.Add(ctx, 1)
	}
	log.FromContext(ctx).WithPrefix("membership").Debug("updated", "id", id)
	return m, nil
}

// Delete permanently removes a membership.
func (s *service) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "membership.delete",
		trace.WithAttributes(attribute.Int64("membership.id", id)),
	)
	defer span.End()

	if err := s.store.Delete(ctx, id); err != nil {
		return s.fail(span, fmt.Errorf("delete membership %d: %w", id, err))
	}

	s.deleted.Add(ctx, 1)
	log.FromContext(ctx).WithPrefix("membership").Debug("deleted", "id", id)
	return nil
}

func (s *service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
