package cleanup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type HistoryPurger interface {
	PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Job drops archived chats past the retention window. Chat bodies are
// never stored, but even the metadata should not outlive its purpose.
type Job struct {
	history   HistoryPurger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func New(history HistoryPurger, retention, interval time.Duration, logger *zap.Logger) *Job {
	if retention <= 0 {
		retention = 90 * 24 * time.Hour
	}
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Job{
		history:   history,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		logger:    logger,
	}
}

// Run loops until ctx is cancelled, purging once per interval.
func (j *Job) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := j.RunOnce(ctx)
			if err != nil {
				j.logger.Error("history cleanup failed", zap.Error(err))
				continue
			}
			if purged > 0 {
				j.logger.Info("history cleanup finished", zap.Int64("purged", purged))
			}
		}
	}
}

func (j *Job) RunOnce(ctx context.Context) (int64, error) {
	if j.history == nil {
		return 0, fmt.Errorf("history purger is nil")
	}

	cutoff := j.now().Add(-j.retention)
	return j.history.PurgeEndedBefore(ctx, cutoff)
}
