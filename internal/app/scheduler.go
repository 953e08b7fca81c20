package app

import (
	"context"
	"time"

	"github.com/danielsohn/sieve/internal/common"
	"github.com/danielsohn/sieve/internal/models"
)

// StartScheduler launches the background refresh loop. It runs one cycle
// immediately, then ticks on the configured interval until StopScheduler
// or Close is called. Calling it twice replaces the previous loop.
func (a *App) StartScheduler() {
	a.StopScheduler()

	ctx, cancel := context.WithCancel(context.Background())
	a.schedulerCancel = cancel
	a.schedulerDone = make(chan struct{})
	done := a.schedulerDone

	interval := a.Config.Collector.GetInterval()
	logger := a.Logger.Component("scheduler")

	go func() {
		defer close(done)

		logger.Info().Dur("interval", interval).Msg("Refresh scheduler started")

		a.runCycle(ctx, logger)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("Refresh scheduler stopped")
				return
			case <-ticker.C:
				a.runCycle(ctx, logger)
			}
		}
	}()
}

func (a *App) runCycle(ctx context.Context, logger *common.Logger) {
	outcome := a.Collector.Run(ctx, false)

	event := logger.Info()
	if outcome.Status == models.RefreshError {
		event = logger.Error()
	}
	event.
		Str("status", outcome.Status).
		Str("reason", outcome.Reason).
		Int("symbols", outcome.SymbolCount).
		Int64("elapsed_ms", outcome.ElapsedMS).
		Msg("Refresh cycle finished")
}

// StopScheduler cancels the refresh loop and waits for it to exit.
func (a *App) StopScheduler() {
	if a.schedulerCancel == nil {
		return
	}
	a.schedulerCancel()
	<-a.schedulerDone
	a.schedulerCancel = nil
	a.schedulerDone = nil
}
