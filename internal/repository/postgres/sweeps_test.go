package postgres

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	pgContainer "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/bodelab/bodesweep/pkg/models"
)

// setupTestDB starts a PostgreSQL container and applies the schema.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	container, err := pgContainer.Run(ctx,
		"postgres:15-alpine",
		pgContainer.WithDatabase("bodesweep_test"),
		pgContainer.WithUsername("testuser"),
		pgContainer.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(context.Background()))
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile(filepath.Join("..", "..", "..", "migrations", "0001_create_sweeps.up.sql"))
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, string(schema))
	require.NoError(t, err)

	return db
}

func testSession() *models.SweepSession {
	started := time.Now().UTC().Truncate(time.Microsecond)
	completed := started.Add(45 * time.Second)
	lastGood := 7525.0
	return &models.SweepSession{
		ID:                     uuid.New().String(),
		StartHz:                100,
		StopHz:                 10000,
		Steps:                  25,
		Status:                 models.StatusAbortedOnOverflow,
		LastGoodUpperFrequency: &lastGood,
		StartedAt:              started,
		CompletedAt:            &completed,
	}
}

func TestSweepRepositoryRoundTrip_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	repo := NewPostgresSweepRepository(db)
	ctx := context.Background()

	session := testSession()
	require.NoError(t, repo.CreateSession(ctx, session))

	records := []models.Record{
		{Ch1Freq: 100, Ch1Ampl: 1.0, Ch2Freq: 100, Ch2Ampl: 0.99, PhaseDiff: -2.1, GainDb: -0.087},
		{Ch1Freq: 512.5, Ch1Ampl: 1.0, Ch2Freq: 512.5, Ch2Ampl: 0.7, PhaseDiff: -44.9, GainDb: -3.098},
	}
	sessionID, err := uuid.Parse(session.ID)
	require.NoError(t, err)
	require.NoError(t, repo.StoreRecords(ctx, sessionID, records))

	got, err := repo.GetSession(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)
	assert.Equal(t, models.StatusAbortedOnOverflow, got.Status)
	require.NotNil(t, got.LastGoodUpperFrequency)
	assert.Equal(t, 7525.0, *got.LastGoodUpperFrequency)
	require.NotNil(t, got.CompletedAt)

	gotRecords, err := repo.GetRecords(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, records, gotRecords)
}

func TestListSessionsNewestFirst_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := setupTestDB(t)
	repo := NewPostgresSweepRepository(db)
	ctx := context.Background()

	older := testSession()
	older.StartedAt = older.StartedAt.Add(-time.Hour)
	newer := testSession()

	require.NoError(t, repo.CreateSession(ctx, older))
	require.NoError(t, repo.CreateSession(ctx, newer))

	sessions, err := repo.ListSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer.ID, sessions[0].ID)
	assert.Equal(t, older.ID, sessions[1].ID)
}
