package jobs

import (
	"context"
	"time"

	"rugguard/internal/config"
	"rugguard/internal/logging"
	"rugguard/internal/metrics"
	"rugguard/internal/poller"
)

// RunPollOnce executes one poll cycle with metrics and logging around it.
func RunPollOnce(ctx context.Context, p *poller.Poller) error {
	start := time.Now()
	metrics.PollRuns.Inc()
	err := p.PollOnce(ctx)
	metrics.ObservePollDuration(start)
	if err != nil {
		metrics.PollErrors.Inc()
		logging.Error("poll_error", map[string]any{"error": err.Error()})
	}
	return err
}

// RunPollLoop drives the poller until ctx is cancelled. It ticks at the
// configured tick interval and runs a cycle when one is due; a failed cycle
// pushes the next attempt out by the cooldown interval instead.
func RunPollLoop(ctx context.Context, p *poller.Poller, cfg config.MonitorConfig) error {
	tick := time.Duration(cfg.TickSeconds) * time.Second
	interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	cooldown := time.Duration(cfg.CooldownSeconds) * time.Second

	next := time.Now() // first poll runs immediately
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		if now := time.Now(); !now.Before(next) {
			if err := RunPollOnce(ctx, p); err != nil {
				next = now.Add(cooldown)
			} else {
				next = now.Add(interval)
			}
		}
		select {
		case <-ctx.Done():
			logging.Info("poll_loop_stop", nil)
			return ctx.Err()
		case <-t.C:
		}
	}
}
