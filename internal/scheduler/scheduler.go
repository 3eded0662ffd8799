// Package scheduler runs incremental scrapes on a cron schedule.
package scheduler

import (
	"context"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/pipeline"
)

// Runner executes one scrape run. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context, opts pipeline.Options) (*model.RunSummary, error)
}

// Scheduler wraps robfig/cron around a Runner.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string

	mu      sync.Mutex
	running bool
}

// New creates a Scheduler for a standard five-field cron spec. The spec may
// carry a CRON_TZ= prefix.
func New(runner Runner, spec string) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLogger{})),
		runner: runner,
		spec:   spec,
	}
}

// Start registers the job and starts the cron loop. Runs use ctx and stop
// being scheduled once Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return eris.Wrapf(err, "scheduler: invalid spec %q", s.spec)
	}
	s.cron.Start()
	zap.L().Info("scheduler: started", zap.String("spec", s.spec))
	return nil
}

// Stop halts scheduling and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	zap.L().Info("scheduler: stopped")
}

// RunOnce performs an incremental run unless one is already in progress.
// It reports whether a run was started.
func (s *Scheduler) RunOnce(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		zap.L().Info("scheduler: previous run still in progress, skipping")
		return false
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	summary, err := s.runner.Run(ctx, pipeline.Options{Incremental: true})
	if err != nil {
		zap.L().Error("scheduler: run failed", zap.Error(err))
		return true
	}
	zap.L().Info("scheduler: run complete",
		zap.String("run_id", summary.RunID),
		zap.Int("scraped", len(summary.Scraped)),
		zap.Int("failed", len(summary.Failed)),
	)
	return true
}

// cronLogger routes cron's own messages to zap.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	zap.L().Sugar().Debugw("scheduler: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	zap.L().Sugar().Errorw("scheduler: "+msg, append(keysAndValues, "error", err)...)
}
