package service

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"pokerunboard/auth"
	"pokerunboard/config"
	"pokerunboard/db"
	"pokerunboard/logger"
	"pokerunboard/models"
	"pokerunboard/runs"
	"pokerunboard/stats"
)

// ArchiveInterface abstracts the snapshot archive operations needed by the service
// (for testability)
type ArchiveInterface interface {
	StoreSnapshot(ctx context.Context, snap *models.StatsSnapshot) (int64, error)
	Close() error
}

// LoaderInterface abstracts the statistics aggregation needed by the service
// (for testability)
type LoaderInterface interface {
	Load(ctx context.Context) (*models.StatsSnapshot, error)
}

// Service errors
var (
	ErrServiceInit     = fmt.Errorf("service initialization error")
	ErrServiceShutdown = fmt.Errorf("service shutdown error")
)

// Service polls the leaderboard statistics and archives a snapshot per round
type Service struct {
	config  *config.Config
	archive ArchiveInterface
	loader  LoaderInterface
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewService wires the archive, runs client and aggregator. A nil cfg is
// loaded from the environment.
func NewService(cfg *config.Config) (*Service, error) {
	if cfg == nil {
		cfg = config.NewConfig()
		if err := cfg.Load(); err != nil {
			return nil, fmt.Errorf("%w: failed to load configuration: %v", ErrServiceInit, err)
		}
	}

	// Initialize archive
	database, err := db.New()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize database: %v", ErrServiceInit, err)
	}

	if err := database.Migrate(context.Background()); err != nil {
		database.Close()
		return nil, fmt.Errorf("%w: %v", ErrServiceInit, err)
	}

	// Initialize runs client
	session := auth.NewSession(cfg.APIToken)
	client, err := runs.NewClient(cfg.APIBaseURL, session,
		runs.WithTimeout(cfg.HTTPTimeout),
		runs.WithSessionClearer(session))
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("%w: failed to create runs client: %v", ErrServiceInit, err)
	}

	svc := New(cfg, database, stats.NewAggregator(client))

	logger.Info("Service initialized successfully",
		zap.String("api_base_url", cfg.APIBaseURL),
		zap.Int("poll_interval", cfg.StatsPollInterval))

	return svc, nil
}

// New assembles a service from already built parts
func New(cfg *config.Config, archive ArchiveInterface, loader LoaderInterface) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		config:  cfg,
		archive: archive,
		loader:  loader,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start records a first snapshot, then polls until SIGINT or SIGTERM
func (s *Service) Start() error {
	if _, err := s.processInitialSnapshot(); err != nil {
		logger.Warn("Error recording initial snapshot", zap.Error(err))
		// Continue despite initial processing error
	}

	s.startMonitoring()

	s.waitForShutdown()

	return nil
}

// processInitialSnapshot records the snapshot taken at startup
func (s *Service) processInitialSnapshot() (int64, error) {
	logger.Info("Recording initial snapshot")

	if s.ctx.Err() != nil {
		return 0, fmt.Errorf("service context cancelled: %w", s.ctx.Err())
	}

	return recordSnapshot(s.ctx, s.loader, s.archive)
}

// startMonitoring starts the polling goroutine
func (s *Service) startMonitoring() {
	interval := s.config.PollInterval()
	logger.Info("Starting statistics monitoring", zap.Duration("poll_interval", interval))

	go s.monitor(s.ctx, interval)
}

// monitor records one snapshot per tick until ctx is done. A failed round is
// logged and the next tick tries again.
func (s *Service) monitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := recordSnapshot(ctx, s.loader, s.archive); err != nil {
				logger.Error("Error recording snapshot", zap.Error(err))
			}
		}
	}
}

// waitForShutdown waits for the shutdown signal
func (s *Service) waitForShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown")
	case <-s.ctx.Done():
	}
	s.cancel()
}

// Close performs cleanup operations
func (s *Service) Close() error {
	logger.Info("Closing service")
	s.cancel()
	if err := s.archive.Close(); err != nil {
		return fmt.Errorf("%w: failed to close database: %v", ErrServiceShutdown, err)
	}
	return nil
}

// recordSnapshot loads the current statistics and archives them
func recordSnapshot(ctx context.Context, loader LoaderInterface, archive ArchiveInterface) (int64, error) {
	if ctx.Err() != nil {
		return 0, fmt.Errorf("context cancelled: %w", ctx.Err())
	}

	snap, err := loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load statistics: %w", err)
	}

	id, err := archive.StoreSnapshot(ctx, snap)
	if err != nil {
		return 0, fmt.Errorf("failed to store snapshot: %w", err)
	}

	logger.Info("Snapshot recorded",
		zap.Int64("id", id),
		zap.Int64("total_runs", snap.TotalRuns),
		zap.String("most_popular_game", snap.MostPopularGame),
		zap.String("overall_avg", stats.FormatMinutes(snap.OverallAvgMinutes)))

	return id, nil
}
