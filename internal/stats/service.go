package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/coopco/relaybot/internal/cache"
)

// Service periodically logs the translation cache size. The cache never
// evicts, so this keeps its growth visible in the logs.
type Service struct {
	scheduler *robfigcron.Cron
	cache     cache.Cache
	schedule  string
}

// NewService creates a Service. An empty schedule defaults to @daily.
func NewService(c cache.Cache, schedule string) *Service {
	if schedule == "" {
		schedule = "@daily"
	}
	return &Service{
		scheduler: robfigcron.New(),
		cache:     c,
		schedule:  schedule,
	}
}

// Start registers the report job and begins the scheduler.
func (s *Service) Start() error {
	if _, err := s.scheduler.AddFunc(s.schedule, s.report); err != nil {
		return fmt.Errorf("failed to register cache report job: %w", err)
	}
	s.scheduler.Start()
	return nil
}

// Stop stops the scheduler.
func (s *Service) Stop() {
	s.scheduler.Stop()
}

func (s *Service) report() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := s.cache.Len(ctx)
	if err != nil {
		slog.Warn("cache report failed", "err", err)
		return
	}
	slog.Info("translation cache report", "entries", n)
}
