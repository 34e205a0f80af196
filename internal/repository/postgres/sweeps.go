package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/bodelab/bodesweep/internal/repository"
	"github.com/bodelab/bodesweep/pkg/models"
)

// PostgresSweepRepository implements SweepRepository for PostgreSQL
type PostgresSweepRepository struct {
	db *sql.DB
}

// NewPostgresSweepRepository creates a new PostgreSQL sweep repository
func NewPostgresSweepRepository(db *sql.DB) repository.SweepRepository {
	return &PostgresSweepRepository{db: db}
}

// CreateSession inserts a finalized sweep session
func (r *PostgresSweepRepository) CreateSession(ctx context.Context, session *models.SweepSession) error {
	query := `
		INSERT INTO sweep_sessions (id, start_hz, stop_hz, steps, defaults_applied, status,
			last_good_upper_hz, error_message, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		session.ID,
		session.StartHz,
		session.StopHz,
		session.Steps,
		session.DefaultsApplied,
		string(session.Status),
		session.LastGoodUpperFrequency,
		session.ErrorMsg,
		session.StartedAt,
		session.CompletedAt)

	return err
}

// GetSession retrieves a sweep session by ID, without its records
func (r *PostgresSweepRepository) GetSession(ctx context.Context, id uuid.UUID) (*models.SweepSession, error) {
	query := `
		SELECT id, start_hz, stop_hz, steps, defaults_applied, status,
			last_good_upper_hz, error_message, started_at, completed_at
		FROM sweep_sessions
		WHERE id = $1`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return session, nil
}

// ListSessions retrieves the most recent sweep sessions, newest first
func (r *PostgresSweepRepository) ListSessions(ctx context.Context, limit int) ([]*models.SweepSession, error) {
	query := `
		SELECT id, start_hz, stop_hz, steps, defaults_applied, status,
			last_good_upper_hz, error_message, started_at, completed_at
		FROM sweep_sessions
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.SweepSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// StoreRecords inserts a session's records in capture order
func (r *PostgresSweepRepository) StoreRecords(ctx context.Context, sessionID uuid.UUID, records []models.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sweep_records (session_id, seq, ch1_freq, ch1_ampl, ch2_freq, ch2_ampl, phase_diff, gain_db)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	for i, rec := range records {
		if _, err := tx.ExecContext(ctx, query,
			sessionID,
			i,
			rec.Ch1Freq,
			rec.Ch1Ampl,
			rec.Ch2Freq,
			rec.Ch2Ampl,
			rec.PhaseDiff,
			rec.GainDb); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetRecords retrieves a session's records in capture order
func (r *PostgresSweepRepository) GetRecords(ctx context.Context, sessionID uuid.UUID) ([]models.Record, error) {
	query := `
		SELECT ch1_freq, ch1_ampl, ch2_freq, ch2_ampl, phase_diff, gain_db
		FROM sweep_records
		WHERE session_id = $1
		ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var rec models.Record
		if err := rows.Scan(
			&rec.Ch1Freq,
			&rec.Ch1Ampl,
			&rec.Ch2Freq,
			&rec.Ch2Ampl,
			&rec.PhaseDiff,
			&rec.GainDb); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*models.SweepSession, error) {
	var session models.SweepSession
	var status string
	var lastGood sql.NullFloat64
	var errorMsg sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&session.ID,
		&session.StartHz,
		&session.StopHz,
		&session.Steps,
		&session.DefaultsApplied,
		&status,
		&lastGood,
		&errorMsg,
		&session.StartedAt,
		&completedAt)

	if err != nil {
		return nil, err
	}

	session.Status = models.SweepStatus(status)
	if lastGood.Valid {
		session.LastGoodUpperFrequency = &lastGood.Float64
	}
	if errorMsg.Valid {
		session.ErrorMsg = &errorMsg.String
	}
	if completedAt.Valid {
		session.CompletedAt = &completedAt.Time
	}

	return &session, nil
}
