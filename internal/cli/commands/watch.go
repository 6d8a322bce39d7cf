package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce coalesces the burst of events an editor save produces.
const watchDebounce = 200 * time.Millisecond

// watch runs the pipeline once, then again after every change to the
// document until ctx is cancelled. Per-run failures are reported and the
// watch continues.
func (s *repairSession) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return infrastructure(fmt.Errorf("failed to start watcher: %w", err))
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(s.path)
	if err != nil {
		return err
	}
	// Watch the directory: editors often replace the file on save.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return infrastructure(fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err))
	}

	last := s.cycle(ctx, "")
	_, _ = fmt.Fprintf(s.renderer.ErrWriter(), "Watching %s for changes (Ctrl+C to stop)\n", s.path)

	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			timer = time.After(watchDebounce)

		case <-timer:
			timer = nil
			last = s.cycle(ctx, last)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watch error", slog.Any("error", err))
		}
	}
}

// cycle runs one pass unless the document still has the content of the
// previous pass. It returns the content the next change is compared with.
func (s *repairSession) cycle(ctx context.Context, last string) string {
	text, err := os.ReadFile(s.path)
	if err != nil {
		s.renderer.Warnf("%v", err)
		return last
	}
	if string(text) == last {
		return last
	}

	if _, err := s.runText(ctx, string(text)); err != nil && !errors.Is(err, context.Canceled) {
		s.renderer.Warnf("%v", err)
		return string(text)
	}

	// A write-back changes the file; compare the next event against that.
	if after, err := os.ReadFile(s.path); err == nil {
		return string(after)
	}
	return string(text)
}
