package handlers

import (
	"context"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bodelab/bodesweep/internal/repository"
	"github.com/bodelab/bodesweep/internal/sweep"
	"github.com/bodelab/bodesweep/pkg/models"
)

// SweepHandler serves sweep progress and results over the monitor API. The
// live session comes from the tracker; older sessions come from the archive
// repository when one is configured.
type SweepHandler struct {
	tracker *sweep.Tracker
	repo    repository.SweepRepository // nil when no archive is configured
}

// NewSweepHandler creates a new sweep handler
func NewSweepHandler(tracker *sweep.Tracker, repo repository.SweepRepository) *SweepHandler {
	return &SweepHandler{
		tracker: tracker,
		repo:    repo,
	}
}

// GetLatestSweep returns the in-flight or most recently finished session
func (h *SweepHandler) GetLatestSweep(ctx context.Context, req *struct{}) (*models.GetLatestSweepResponse, error) {
	session, ok := h.tracker.Latest()
	if !ok {
		return nil, huma.Error404NotFound("No sweep has started yet", nil)
	}
	return &models.GetLatestSweepResponse{Body: session}, nil
}

// GetSweepStatus returns the current status of a sweep
func (h *SweepHandler) GetSweepStatus(ctx context.Context, req *models.GetSweepRequest) (*models.GetSweepStatusResponse, error) {
	session, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	resp := &models.GetSweepStatusResponse{}
	resp.Body.ID = session.ID
	resp.Body.Status = string(session.Status)
	resp.Body.CursorFrequency = session.CursorFrequency
	resp.Body.Points = len(session.Records)
	resp.Body.Skipped = len(session.Skipped)
	resp.Body.Message = statusMessage(session)
	return resp, nil
}

// GetSweepRecords returns a session's records in capture order
func (h *SweepHandler) GetSweepRecords(ctx context.Context, req *models.GetSweepRequest) (*models.GetSweepRecordsResponse, error) {
	session, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	records := session.Records
	if records == nil && h.repo != nil {
		sessionID, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, huma.Error400BadRequest("Invalid sweep ID", err)
		}
		records, err = h.repo.GetRecords(ctx, sessionID)
		if err != nil {
			return nil, huma.Error500InternalServerError("Failed to load records", err)
		}
	}

	resp := &models.GetSweepRecordsResponse{}
	resp.Body.ID = session.ID
	resp.Body.Records = records
	return resp, nil
}

// ListSweeps returns archived sessions, newest first
func (h *SweepHandler) ListSweeps(ctx context.Context, req *models.ListSweepsRequest) (*models.ListSweepsResponse, error) {
	if h.repo == nil {
		return nil, huma.Error404NotFound("No sweep archive configured", nil)
	}

	sessions, err := h.repo.ListSessions(ctx, req.Limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list archived sweeps")
		return nil, huma.Error500InternalServerError("Failed to list sweeps", err)
	}

	resp := &models.ListSweepsResponse{}
	resp.Body.Sessions = sessions
	return resp, nil
}

// lookup resolves a session ID against the live tracker first, then the
// archive.
func (h *SweepHandler) lookup(ctx context.Context, id string) (models.SweepSession, error) {
	if session, ok := h.tracker.Latest(); ok && session.ID == id {
		return session, nil
	}

	if h.repo == nil {
		return models.SweepSession{}, huma.Error404NotFound("Sweep not found", nil)
	}

	sessionID, err := uuid.Parse(id)
	if err != nil {
		return models.SweepSession{}, huma.Error400BadRequest("Invalid sweep ID", err)
	}
	session, err := h.repo.GetSession(ctx, sessionID)
	if err != nil {
		return models.SweepSession{}, huma.Error404NotFound("Sweep not found", err)
	}
	return *session, nil
}

func statusMessage(session models.SweepSession) string {
	switch session.Status {
	case models.StatusRunning:
		return fmt.Sprintf("Sweeping at %.1f Hz, %d points captured", session.CursorFrequency, len(session.Records))
	case models.StatusCompleted:
		return fmt.Sprintf("Sweep complete, %d points captured", len(session.Records))
	case models.StatusAbortedOnOverflow:
		if session.LastGoodUpperFrequency != nil {
			return fmt.Sprintf("Sweep halted: readings overflowed, usable range ends near %.0f Hz", *session.LastGoodUpperFrequency)
		}
		return "Sweep halted: readings overflowed before any valid point"
	case models.StatusAbortedOnError:
		return "Sweep aborted on instrument error, partial dataset preserved"
	}
	return ""
}
