package config

import (
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jsimonrichard/sceideal/internal/logger"
)

// Live is an atomically swappable config snapshot. Handlers read it on
// every request so a reload takes effect without restarting; the session
// and csrf caches are deliberately untouched by reloads.
type Live struct {
	p atomic.Pointer[Config]
}

// NewLive wraps an initial snapshot.
func NewLive(cfg *Config) *Live {
	l := &Live{}
	l.p.Store(cfg)
	return l
}

// Get returns the current snapshot. The returned value must be treated
// as read-only.
func (l *Live) Get() *Config {
	return l.p.Load()
}

// Set replaces the snapshot.
func (l *Live) Set(cfg *Config) {
	l.p.Store(cfg)
}

// debounceInterval coalesces the bursts of fsnotify events editors
// produce for a single save.
const debounceInterval = 100 * time.Millisecond

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	fsw  *fsnotify.Watcher
	stop chan struct{}
	done chan struct{}
}

// Watch starts watching path and calls onChange with each successfully
// reloaded snapshot. Reload failures are logged and the previous snapshot
// stays in effect.
func Watch(path string, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:  fsw,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(w.done)

		var timer *time.Timer
		var timerC <-chan time.Time

		for {
			select {
			case event, ok := <-fsw.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(debounceInterval)
					timerC = timer.C
				} else {
					timer.Reset(debounceInterval)
				}

			case <-timerC:
				timer = nil
				timerC = nil
				cfg, err := Load(path)
				if err != nil {
					logger.Errorw("config reload failed, keeping previous config",
						"path", path, "error", err)
					continue
				}
				logger.Infow("config reloaded", "path", path)
				onChange(cfg)

			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Errorw("config watcher error", "error", err)

			case <-w.stop:
				return
			}
		}
	}()

	return w, nil
}

// Stop terminates the watch goroutine and releases the inotify handle.
func (w *Watcher) Stop() {
	close(w.stop)
	w.fsw.Close()
	<-w.done
}
