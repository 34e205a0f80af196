package repository

import (
	"context"

	"github.com/bodelab/bodesweep/pkg/models"
	"github.com/google/uuid"
)

// SweepRepository defines the interface for the sweep archive: finished
// sessions and their records, kept so bench runs can be compared over time.
type SweepRepository interface {
	CreateSession(ctx context.Context, session *models.SweepSession) error
	GetSession(ctx context.Context, id uuid.UUID) (*models.SweepSession, error)
	ListSessions(ctx context.Context, limit int) ([]*models.SweepSession, error)
	StoreRecords(ctx context.Context, sessionID uuid.UUID, records []models.Record) error
	GetRecords(ctx context.Context, sessionID uuid.UUID) ([]models.Record, error)
}
