package watcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/labship/pkg/log"
)

// notifyDebounce lets an instrument finish writing before a scan.
const notifyDebounce = 250 * time.Millisecond

// notifier turns create and write events in the source directories into
// wake-ups of the poll loop.
type notifier struct {
	fsw    *fsnotify.Watcher
	ext    string
	logger log.Logger
	wake   chan struct{}

	mu       sync.Mutex
	debounce *time.Timer
}

func newNotifier(dirs []string, ext string, logger log.Logger) (*notifier, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return nil, err
		}
	}
	return &notifier{
		fsw:    fsw,
		ext:    ext,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}, nil
}

// C receives at most one pending wake-up.
func (n *notifier) C() <-chan struct{} { return n.wake }

func (n *notifier) run(ctx context.Context) {
	defer n.fsw.Close()
	for {
		select {
		case <-ctx.Done():
			n.mu.Lock()
			if n.debounce != nil {
				n.debounce.Stop()
			}
			n.mu.Unlock()
			return

		case event, ok := <-n.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !matchExt(filepath.Base(event.Name), n.ext) {
				continue
			}
			n.schedule()

		case err, ok := <-n.fsw.Errors:
			if !ok {
				return
			}
			n.logger.Warn("filesystem notification error", log.Err(err))
		}
	}
}

func (n *notifier) schedule() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.debounce != nil {
		n.debounce.Stop()
	}
	n.debounce = time.AfterFunc(notifyDebounce, func() {
		select {
		case n.wake <- struct{}{}:
		default:
		}
	})
}
