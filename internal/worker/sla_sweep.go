package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/siteops/alertdesk/internal/escalation"
	"github.com/siteops/alertdesk/internal/events"
)

// DefaultSweepSchedule runs the SLA sweep every five minutes.
const DefaultSweepSchedule = "@every 5m"

// SLASweeper rewrites stored SLA standings and publishes the resulting events.
type SLASweeper struct {
	engine     *escalation.Engine
	dispatcher events.Dispatcher
	logger     *zap.Logger
	timeout    time.Duration

	mu      sync.Mutex
	running bool
}

// NewSLASweeper builds a sweeper. A zero timeout lets a run take as long as it needs.
func NewSLASweeper(engine *escalation.Engine, dispatcher events.Dispatcher, logger *zap.Logger, timeout time.Duration) *SLASweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SLASweeper{engine: engine, dispatcher: dispatcher, logger: logger, timeout: timeout}
}

// Run performs one sweep. Overlapping runs are skipped.
func (s *SLASweeper) Run(ctx context.Context) (escalation.SweepResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.logger.Warn("sla sweep still running; skipping tick")
		return escalation.SweepResult{}, nil
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.engine.SweepSLA(ctx)
	events.PublishAll(ctx, s.dispatcher, result.Effects)
	if err != nil {
		s.logger.Error("sla sweep failed", zap.Error(err), zap.Int("updated", result.Updated))
		return result, err
	}
	s.logger.Info("sla sweep completed",
		zap.Int("checked", result.Checked),
		zap.Int("updated", result.Updated),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// StartSLASweep schedules the sweeper on a cron expression such as "@every 5m" or
// "*/5 * * * *". The caller stops the returned scheduler on shutdown.
func StartSLASweep(ctx context.Context, sweeper *SLASweeper, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := scheduler.AddFunc(schedule, func() {
		_, _ = sweeper.Run(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sla sweep schedule %q: %w", schedule, err)
	}
	scheduler.Start()
	return scheduler, nil
}
