package membership

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB attempts to connect to a PostgreSQL database for testing.
// It skips the test if the connection cannot be established.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	connStr := os.Getenv("MEMBERSHIP_TEST_DATABASE_URL")
	if connStr == "" {
		connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			envOr("PGHOST", "localhost"),
			envOr("PGPORT", "5432"),
			envOr("PGUSER", "user"),
			envOr("PGPASSWORD", "password"),
			envOr("PGDATABASE", "testdb"),
		)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database connection: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Ping(); err != nil {
		t.Skipf("skipping postgres tests: could not connect to postgres: %v", err)
	}

	ctx := context.Background()
	require.NoError(t, Bootstrap(ctx, db))
	_, err = db.ExecContext(ctx, `TRUNCATE TABLE memberships, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
	return db
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func insertUser(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	var id int64
	require.NoError(t, db.QueryRow(`INSERT INTO users DEFAULT VALUES RETURNING id`).Scan(&id))
	return id
}

func TestSchemaKeepsMicrosecondZonedTimestamps(t *testing.T) {
	assert.Equal(t, 4, strings.Count(schema, "TIMESTAMPTZ(6) NOT NULL DEFAULT NOW()"))
	assert.Contains(t, schema, "REFERENCES users (id) ON DELETE CASCADE")
}

func TestPostgresStoreLifecycle(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()
	userID := insertUser(t, db)
	otherUser := insertUser(t, db)

	created, err := store.Create(ctx, NewMembership{UserID: userID, Status: "active", Position: "engineer"})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	found, err := store.Find(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, Project(created), Project(found))

	unchanged, err := store.Update(ctx, created.ID, Patch{})
	require.NoError(t, err)
	assert.Equal(t, Project(created), Project(unchanged))

	updated, err := store.Update(ctx, created.ID, Patch{Status: Some("inactive"), UserID: Some(otherUser)})
	require.NoError(t, err)
	assert.Equal(t, "inactive", updated.Status)
	assert.Equal(t, "engineer", updated.Position)
	assert.Equal(t, otherUser, updated.UserID)

	all, err := store.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.NoError(t, store.Delete(ctx, created.ID))
	_, err = store.Find(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.Delete(ctx, created.ID), ErrNotFound)
	_, err = store.Update(ctx, created.ID, Patch{Status: Some("x")})
	assert.ErrorIs(t, err, ErrNotFound)

	again, err := store.Create(ctx, NewMembership{UserID: userID, Status: "active", Position: "engineer"})
	require.NoError(t, err)
	assert.Greater(t, again.ID, created.ID)
}

func TestPostgresStoreForeignKeyFault(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostgresStore(db)

	_, err := store.Create(context.Background(), NewMembership{UserID: 424242, Status: "active", Position: "engineer"})
	require.Error(t, err)
	assert.Equal(t, "23503", SQLState(err))
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreOversizedUpdateFault(t *testing.T) {
	db := setupTestDB(t)
	store := NewPostgresStore(db)
	ctx := context.Background()
	userID := insertUser(t, db)

	m, err := store.Create(ctx, NewMembership{UserID: userID, Status: "active", Position: "engineer"})
	require.NoError(t, err)

	long := make([]byte, MaxFieldLength+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = store.Update(ctx, m.ID, Patch{Status: Some(string(long))})
	require.Error(t, err)
	assert.Equal(t, "22001", SQLState(err))
}
