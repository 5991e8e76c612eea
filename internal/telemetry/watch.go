package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay coalesces the burst of events one file write produces.
const settleDelay = 100 * time.Millisecond

// Watch reports changes to exported readings in dir until ctx is done.
// notify is called once per settled change with the signal that changed.
func Watch(ctx context.Context, dir string, notify func(Signal)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go watchLoop(ctx, w, notify)
	return nil
}

func watchLoop(ctx context.Context, w *fsnotify.Watcher, notify func(Signal)) {
	logger := slog.With("component", "telemetry")
	defer w.Close()

	var (
		mu     sync.Mutex
		timers = map[Signal]*time.Timer{}
	)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			sig, ok := signalForFile(event.Name)
			if !ok {
				continue
			}

			mu.Lock()
			if t, ok := timers[sig]; ok {
				t.Stop()
			}
			timers[sig] = time.AfterFunc(settleDelay, func() {
				if ctx.Err() == nil {
					notify(sig)
				}
			})
			mu.Unlock()

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", "error", err)
		}
	}
}
