package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bodelab/bodesweep/internal/api"
	"github.com/bodelab/bodesweep/internal/config"
	"github.com/bodelab/bodesweep/internal/export"
	"github.com/bodelab/bodesweep/internal/instrument"
	"github.com/bodelab/bodesweep/internal/instrument/instrumenttest"
	"github.com/bodelab/bodesweep/internal/instrument/scpi"
	"github.com/bodelab/bodesweep/internal/repository"
	"github.com/bodelab/bodesweep/internal/repository/postgres"
	"github.com/bodelab/bodesweep/internal/storage"
	"github.com/bodelab/bodesweep/internal/sweep"
	"github.com/bodelab/bodesweep/pkg/models"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	startHz := flag.Float64("start", cfg.Sweep.StartHz, "sweep start frequency in Hz")
	stopHz := flag.Float64("stop", cfg.Sweep.StopHz, "sweep stop frequency in Hz")
	steps := flag.Int("steps", cfg.Sweep.Steps, "number of sweep points")
	transport := flag.String("transport", cfg.Instrument.Transport, "instrument transport: sim, tcp or gpib")
	address := flag.String("address", cfg.Instrument.Address, "instrument address (host:port for tcp, serial device for gpib)")
	flag.Parse()

	// Ctrl-C aborts the sweep; partial results are still exported.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	adapter, err := openAdapter(*transport, *address, cfg.Instrument.GPIBAddr)
	if err != nil {
		log.Fatal().Err(err).Str("transport", *transport).Msg("Failed to open instrument")
	}
	defer adapter.Close()

	if idn, err := adapter.Identify(ctx); err == nil {
		log.Info().Str("instrument", idn).Msg("Instrument connected")
	}
	if err := adapter.ConfigureDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to reset instrument")
	}

	repo := openArchive(cfg.Database.URL)

	tracker := sweep.NewTracker()
	var srv *http.Server
	if cfg.Monitor.Enabled {
		srv = api.NewServer(":"+cfg.Monitor.Port, tracker, repo)
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("Starting monitor API server")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("Monitor server failed")
			}
		}()
	}

	engine := sweep.NewEngine(adapter, policyFromConfig(cfg.Sweep), sweep.WithObserver(tracker))
	session, runErr := engine.Run(ctx, *startHz, *stopHz, *steps)
	if runErr != nil {
		log.Error().Err(runErr).Msg("Sweep did not complete")
	}

	exportArtifacts(context.Background(), cfg, session)
	archiveSession(context.Background(), repo, session)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Monitor server forced to shutdown")
		}
	}

	if runErr != nil || session.Status == models.StatusAbortedOnError {
		os.Exit(1)
	}
}

// openAdapter selects the instrument transport.
func openAdapter(transport, address string, gpibAddr int) (instrument.Adapter, error) {
	switch transport {
	case "sim":
		log.Info().Msg("Using simulated instrument (RC low-pass)")
		return instrumenttest.NewSimulator(), nil
	case "tcp":
		return scpi.DialTCP(address)
	case "gpib":
		return scpi.DialGPIB(address, gpibAddr)
	}
	return nil, fmt.Errorf("unknown transport %q (want sim, tcp or gpib)", transport)
}

// openArchive connects the sweep archive when DATABASE_URL is set.
func openArchive(url string) repository.SweepRepository {
	if url == "" {
		return nil
	}
	db, err := sql.Open("postgres", url)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open sweep archive, continuing without it")
		return nil
	}
	if err := db.Ping(); err != nil {
		log.Error().Err(err).Msg("Sweep archive unreachable, continuing without it")
		db.Close()
		return nil
	}
	return postgres.NewPostgresSweepRepository(db)
}

func policyFromConfig(c config.SweepConfig) sweep.Policy {
	return sweep.Policy{
		MaxAttempts:        c.MaxAttempts,
		NudgeStepHz:        c.NudgeStepHz,
		LowBandWidthHz:     c.LowBandWidthHz,
		OverflowSentinel:   c.OverflowSentinel,
		SettleInitial:      c.SettleInitial,
		SettleBetween:      c.SettleBetween,
		GeneratorAmplitude: c.GeneratorAmplitude,
		GeneratorOffset:    c.GeneratorOffset,
	}
}

// exportArtifacts writes the CSV dataset and Bode plot locally and, when a
// bucket is configured, uploads both.
func exportArtifacts(ctx context.Context, cfg *config.Config, session *models.SweepSession) {
	if len(session.Records) == 0 {
		log.Warn().Msg("No records captured, skipping export")
		return
	}

	completedAt := time.Now()
	if session.CompletedAt != nil {
		completedAt = *session.CompletedAt
	}

	csvPath, err := export.SaveDataset(cfg.Export.DataDir, session, completedAt)
	if err != nil {
		log.Error().Err(err).Msg("Failed to write dataset")
	} else {
		log.Info().Str("path", csvPath).Int("records", len(session.Records)).Msg("Dataset written")
	}

	plotPath, err := export.SavePlot(cfg.Export.PlotDir, session, completedAt)
	if err != nil {
		log.Error().Err(err).Msg("Failed to render Bode plot")
	} else {
		log.Info().Str("path", plotPath).Msg("Bode plot written")
	}

	if cfg.AWS.S3Bucket == "" {
		return
	}
	store, err := storage.NewArtifactStore(storage.S3Config{
		Bucket:    cfg.AWS.S3Bucket,
		Endpoint:  cfg.AWS.S3Endpoint,
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKeyID,
		SecretKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialize artifact store")
		return
	}
	uploadArtifact(ctx, store, csvPath, "text/csv")
	uploadArtifact(ctx, store, plotPath, "image/png")
}

func uploadArtifact(ctx context.Context, store storage.ArtifactStore, path, contentType string) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("Failed to read artifact for upload")
		return
	}
	key := "sweeps/" + filepath.Base(path)
	if err := store.UploadArtifact(ctx, key, contentType, data); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to upload artifact")
		return
	}
	url, err := store.GenerateDownloadURL(ctx, key)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to generate download URL")
		return
	}
	log.Info().Str("key", key).Str("url", url).Msg("Artifact uploaded")
}

// archiveSession persists the session and its records when an archive is
// configured.
func archiveSession(ctx context.Context, repo repository.SweepRepository, session *models.SweepSession) {
	if repo == nil {
		return
	}
	if err := repo.CreateSession(ctx, session); err != nil {
		log.Error().Err(err).Msg("Failed to archive sweep session")
		return
	}
	sessionID, err := uuid.Parse(session.ID)
	if err != nil {
		log.Error().Err(err).Msg("Invalid session ID, cannot archive records")
		return
	}
	if err := repo.StoreRecords(ctx, sessionID, session.Records); err != nil {
		log.Error().Err(err).Msg("Failed to archive sweep records")
		return
	}
	log.Info().Str("sessionID", session.ID).Int("records", len(session.Records)).Msg("Sweep archived")
}
