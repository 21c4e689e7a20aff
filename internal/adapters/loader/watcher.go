package loader

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/songleague/pkg/logger"
)

// DefaultDebounce is how long a league must stay quiet before a change is
// reported.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reports leagues whose export files changed. It watches every
// league directory under the data directory; each burst of writes to one
// league is reported once on Changes.
type Watcher struct {
	Changes <-chan string

	changes  chan string
	stop     chan struct{}
	done     chan struct{}
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      logger.Logger

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewWatcher watches the given league directories under dir.
func NewWatcher(dir string, leagues []string, debounce time.Duration, log logger.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, league := range leagues {
		if err := fw.Add(filepath.Join(dir, league)); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logger.Nop()
	}
	ch := make(chan string, 16)
	return &Watcher{
		Changes:  ch,
		changes:  ch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
		debounce: debounce,
		log:      log,
	}, nil
}

// Start runs the event loop until ctx is cancelled or Stop is called. It
// does nothing after the first call or once stopped.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	go w.loop(ctx)
}

// Stop closes the watcher and waits for the loop to exit, if it ever ran.
// Changes is closed afterwards. Stop is safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.stopped = true
	started := w.started
	w.mu.Unlock()

	close(w.stop)
	_ = w.watcher.Close()
	if !started {
		close(w.changes)
		close(w.done)
		return
	}
	<-w.done
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)
	defer close(w.changes)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.watcher.Close()
			return

		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isExportFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[filepath.Base(filepath.Dir(event.Name))] = time.Now()
			}

		case <-ticker.C:
			now := time.Now()
			for league, t := range pending {
				if now.Sub(t) < w.debounce {
					continue
				}
				delete(pending, league)
				select {
				case w.changes <- league:
				case <-ctx.Done():
					return
				case <-w.stop:
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn(ctx, "watch error", logger.Error(err))
		}
	}
}

func isExportFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := filepath.Ext(base)
	return ext == ".csv" || ext == ".yaml" || ext == ".yml" || ext == ".json"
}
