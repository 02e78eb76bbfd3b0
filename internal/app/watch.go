package app

import (
	"context"
	"log/slog"

	"protoscan/internal/analyzer"
	"protoscan/internal/shared/observability"
	"protoscan/internal/shared/util"
	"protoscan/internal/watcher"
)

// Watch reruns the analysis whenever source files change. Rescans are rate
// limited so editor save storms cannot queue up redundant passes. Blocks
// until ctx is cancelled.
func (a *App) Watch(ctx context.Context, opts Options, onRun func(*analyzer.Analysis)) error {
	limiter := util.NewRescanLimiter(a.Config.Watch.RescanPerSecond)
	trigger := make(chan struct{}, 1)

	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		func(paths []string) {
			slog.Debug("source change detected", "files", len(paths))
			select {
			case trigger <- struct{}{}:
			default:
			}
		},
	)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch([]string{a.Config.ScanPath}); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-trigger:
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			observability.RescansTotal.Inc()

			runCtx, cancel := context.WithTimeout(ctx, a.Config.Timeout)
			analysis, err := a.Run(runCtx)
			cancel()
			if err != nil {
				slog.Error("rescan failed", "error", err)
				continue
			}
			if err := a.Report(analysis, opts); err != nil {
				slog.Error("report failed", "error", err)
				continue
			}
			if onRun != nil {
				onRun(analysis)
			}
		}
	}
}
