// -----------------------------------------------------------------------
// Scheduler - Background sweeps on a cron schedule
// Dismisses expired job statuses and cleans stale extraction temp files
// -----------------------------------------------------------------------

package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/common"
)

// tempFileMaxAge is how long extraction temp files may linger before the
// cleanup sweep removes them.
const tempFileMaxAge = time.Hour

// StatusSweeper dismisses terminal job statuses past their display
// window. Implemented by the ingestion orchestrator.
type StatusSweeper interface {
	SweepExpired(now time.Time) bool
}

// Service runs the periodic background sweeps.
type Service struct {
	cron     *cron.Cron
	logger   arbor.ILogger
	schedule string
	sweeper  StatusSweeper
	tempDir  string

	mu      sync.Mutex
	running bool
}

// NewService creates a scheduler sweeping the given orchestrator.
func NewService(sweeper StatusSweeper, cfg *common.SchedulerConfig, logger arbor.ILogger) *Service {
	schedule := cfg.SweepSchedule
	if schedule == "" {
		schedule = "@every 5s"
	}
	return &Service{
		cron:     cron.New(),
		logger:   logger,
		schedule: schedule,
		sweeper:  sweeper,
		tempDir:  filepath.Join(os.TempDir(), "memoro-pdf"),
	}
}

// Start registers the sweep jobs and starts the cron loop.
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.sweepStatus); err != nil {
		return fmt.Errorf("failed to register status sweep: %w", err)
	}
	if _, err := s.cron.AddFunc("@every 1h", s.sweepTempFiles); err != nil {
		return fmt.Errorf("failed to register temp file sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info().Str("schedule", s.schedule).Msg("Scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Service) sweepStatus() {
	if s.sweeper.SweepExpired(time.Now()) {
		s.logger.Debug().Msg("Expired job status dismissed")
	}
}

// sweepTempFiles removes extraction temp files the pdf service failed to
// clean up, such as after a crash mid-extraction.
func (s *Service) sweepTempFiles() {
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		return
	}

	cutoff := time.Now().Add(-tempFileMaxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.tempDir, entry.Name())
		if err := os.RemoveAll(path); err == nil {
			removed++
		}
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("Cleaned stale extraction temp files")
	}
}
