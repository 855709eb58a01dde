package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/truwl/capanno-utils/internal/domain"
	"github.com/truwl/capanno-utils/internal/infra/telemetry"
)

type WatchOptions struct {
	// Serve exposes /metrics, /healthz and /index while watching.
	Serve bool
}

// Watch refreshes the content index whenever metadata under the content
// directories changes, until ctx is done.
func (a *Application) Watch(ctx context.Context, opts WatchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range []string{a.layout.ToolsDir(), a.layout.ScriptsDir(), a.layout.WorkflowsDir()} {
		if err := addTree(watcher, dir); err != nil {
			return err
		}
	}

	if _, err := a.RefreshIndex(ctx); err != nil {
		a.logger.Warn("initial index refresh failed", zap.Error(err))
	}

	group, ctx := errgroup.WithContext(ctx)
	if opts.Serve {
		group.Go(func() error {
			return telemetry.StartHTTPServer(ctx, telemetry.HTTPServerOptions{
				Addr:     a.settings.MetricsAddress,
				Registry: a.registry,
				Health:   a.health,
				Index:    a.store,
			}, a.logger)
		})
	}
	group.Go(func() error {
		return a.watchLoop(ctx, watcher)
	})
	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *Application) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) error {
	debounce := a.settings.WatchDebounce
	if debounce <= 0 {
		debounce = domain.DefaultWatchDebounce
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("repository watcher error", zap.Error(err))
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						a.logger.Warn("repository watcher add failed", telemetry.PathField(event.Name), zap.Error(err))
					}
				}
			}
			if !relevantEvent(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(debounce)
		case <-timerChan(timer):
			timer = nil
			if _, err := a.RefreshIndex(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				a.logger.Warn("index refresh failed", zap.Error(err))
			}
		}
	}
}

// addTree watches dir and every directory below it, skipping hidden ones.
// A missing dir is ignored.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return nil
}

// relevantEvent reports whether event touches a metadata document or a
// directory that may hold one.
func relevantEvent(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.HasSuffix(base, domain.MetadataSuffix) || filepath.Ext(base) == ""
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
