package app

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// MonitorMode recovers persisted state, starts the monitor scheduler, and
// blocks until the context is cancelled.
func (a *App) MonitorMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting monitor mode")

	deps.Monitor.Recover(ctx)
	deps.Monitor.Start(ctx)

	<-ctx.Done()
	deps.Monitor.Stop()
	return nil
}

// ArchiveMode runs the cold-storage archiver on its cron schedule.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")

	if deps.Archiver == nil {
		return errors.New("app: archive mode requires s3 configuration")
	}

	err := deps.Archiver.RunCron(ctx, a.cfg.Archive.Cron)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// FullMode runs the monitor and, when enabled, the archiver concurrently.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.MonitorMode(ctx, deps)
	})

	if a.cfg.Archive.Enabled && deps.Archiver != nil {
		g.Go(func() error {
			err := deps.Archiver.RunCron(ctx, a.cfg.Archive.Cron)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return g.Wait()
}
