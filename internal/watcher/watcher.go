// Package watcher re-runs the generation pipeline for literate documents
// as they change on disk.
//
// Change detection is polling based: each interval, every watched file's
// last-modified time is compared against a short recency window. Editors
// replace files non-atomically, so a file can be briefly missing or
// unreadable mid-write; those failures are retried a bounded number of
// times with a fixed backoff before being treated as fatal.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"syscall"
	"time"
)

type Options struct {
	// How often watched files are polled
	Interval time.Duration
	// A file is reprocessed when its mtime falls inside this window
	Window time.Duration
	// How many times a transient failure is retried before it is fatal
	MaxRetries int
	// Fixed delay between retries
	RetryBackoff time.Duration
}

var DefaultOptions = Options{
	Interval:     time.Second,
	Window:       2 * time.Second,
	MaxRetries:   3,
	RetryBackoff: 250 * time.Millisecond,
}

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultOptions.Interval
	}
	if o.Window <= 0 {
		o.Window = DefaultOptions.Window
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultOptions.MaxRetries
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = DefaultOptions.RetryBackoff
	}
	return o
}

// ProcessFunc runs the pipeline for one document.
type ProcessFunc func(path string) error

type Watcher struct {
	process ProcessFunc
	opts    Options
}

func New(process ProcessFunc, opts Options) *Watcher {
	return &Watcher{
		process: process,
		opts:    opts.withDefaults(),
	}
}

// Watch polls paths until ctx is done. It returns nil on cancellation and
// an error only when a file keeps failing past the retry limit.
func (w *Watcher) Watch(ctx context.Context, paths []string) error {
	slog.Info("watching files", "count", len(paths), "interval", w.opts.Interval)

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch loop stopped")
			return nil
		case now := <-ticker.C:
			if err := w.poll(paths, now); err != nil {
				return err
			}
		}
	}
}

// poll reprocesses every path whose mtime falls inside the recency
// window ending at now.
func (w *Watcher) poll(paths []string, now time.Time) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if IsTransient(err) {
				// Mid-write replace; it will be back by the next tick
				slog.Debug("file temporarily unavailable", "path", path)
				continue
			}
			return fmt.Errorf("watching %s: %w", path, err)
		}

		if now.Sub(info.ModTime()) > w.opts.Window {
			continue
		}

		slog.Debug("file changed", "path", path, "mtime", info.ModTime())
		if err := w.runWithRetry(path); err != nil {
			return fmt.Errorf("processing %s: %w", path, err)
		}
	}
	return nil
}

// runWithRetry runs the pipeline, retrying transient failures up to
// MaxRetries with a fixed backoff.
func (w *Watcher) runWithRetry(path string) error {
	var err error
	for attempt := 0; attempt <= w.opts.MaxRetries; attempt++ {
		if attempt > 0 {
			slog.Debug("retrying", "path", path, "attempt", attempt)
			time.Sleep(w.opts.RetryBackoff)
		}

		err = w.process(path)
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return err
		}
	}
	return fmt.Errorf("gave up after %d retries: %w", w.opts.MaxRetries, err)
}

// IsTransient reports whether err looks like a file being mid-write:
// briefly missing or locked, worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EAGAIN)
}
