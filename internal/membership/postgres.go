// internal/membership/postgres.go
package membership

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

//go:embed schema.sql
var schema string

const membershipColumns = `id, user_id, status, position, created_at, updated_at`

// PostgresStore persists memberships in the memberships table.
type PostgresStore struct {
	db     *sql.DB
	tracer trace.Tracer
}

// NewPostgresStore creates a store backed by db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("membershipd/postgres"),
	}
}

// Bootstrap creates the users and memberships tables when they are missing.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMembership(row rowScanner) (*Membership, error) {
	m := &Membership{}
	err := row.Scan(
		&m.ID,
		&m.UserID,
		&m.Status,
		&m.Position,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// All returns every row in store-native order.
func (s *PostgresStore) All(ctx context.Context) ([]*Membership, error) {
	ctx, span := s.tracer.Start(ctx, "postgres.memberships.all")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `SELECT `+membershipColumns+` FROM memberships`)
	if err != nil {
		return nil, s.storeError(span, "query memberships", err)
	}
	defer rows.Close()

	var out []*Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, s.storeError(span, "scan membership", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, s.storeError(span, "iterate memberships", err)
	}

	span.SetAttributes(attribute.Int("rows.loaded", len(out)))
	return out, nil
}

func (s *PostgresStore) Create(ctx context.Context, nm NewMembership) (*Membership, error) {
	ctx, span := s.tracer.Start(ctx, "postgres.memberships.create",
		trace.WithAttributes(attribute.Int64("user.id", nm.UserID)),
	)
	defer span.End()

	query := `
		INSERT INTO memberships (user_id, status, position, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING ` + membershipColumns
	m, err := scanMembership(s.db.QueryRowContext(ctx, query, nm.UserID, nm.Status, nm.Position))
	if err != nil {
		return nil, s.storeError(span, "insert membership", err)
	}

	span.SetAttributes(attribute.Int64("membership.id", m.ID))
	return m, nil
}

func (s *PostgresStore) Find(ctx context.Context, id int64) (*Membership, error) {
	ctx, span := s.tracer.Start(ctx, "postgres.memberships.find",
		trace.WithAttributes(attribute.Int64("membership.id", id)),
	)
	defer span.End()

	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`
	m, err := scanMembership(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, s.storeError(span, "select membership", err)
	}
	return m, nil
}

// Update writes only the fields set in patch and touches updated_at.
// An empty patch is a read.
func (s *PostgresStore) Update(ctx context.Context, id int64, patch Patch) (*Membership, error) {
	if patch.Empty() {
		return s.Find(ctx, id)
	}

	ctx, span := s.tracer.Start(ctx, "postgres.memberships.update",
		trace.WithAttributes(attribute.Int64("membership.id", id)),
	)
	defer span.End()

	var (
		sets []string
		args []any
	)
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.UserID.Set {
		set("user_id", patch.UserID.Value)
	}
	if patch.Status.Set {
		set("status", patch.Status.Value)
	}
	if patch.Position.Set {
		set("position", patch.Position.Value)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE memberships SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), membershipColumns)
	m, err := scanMembership(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, s.storeError(span, "update membership", err)
	}
	return m, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	ctx, span := s.tracer.Start(ctx, "postgres.memberships.delete",
		trace.WithAttributes(attribute.Int64("membership.id", id)),
	)
	defer span.End()

	res, err := s.db.ExecContext(ctx, `DELETE FROM memberships WHERE id = $1`, id)
	if err != nil {
		return s.storeError(span, "delete membership", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.storeError(span, "delete membership", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// storeError tags the span with the Postgres SQLSTATE, when there is one, and wraps err.
func (s *PostgresStore) storeError(span trace.Span, op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		span.SetAttributes(
			attribute.String("db.sqlstate", string(pqErr.Code)),
			attribute.String("db.error_class", pqErr.Code.Class().Name()),
		)
	}
	span.RecordError(err)
	return fmt.Errorf("%s: %w", op, err)
}

// SQLState returns the Postgres error code carried by err, or "".
func SQLState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
