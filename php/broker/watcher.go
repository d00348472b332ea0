package broker

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Result reports one rebuild of a watched directory.
type Result struct {
	// Broker holds every file of the directory as of the rebuild.
	Broker *Broker
	// Changed lists the paths whose events triggered the rebuild; it is
	// empty for the initial build.
	Changed []string
	// Err joins the per-file failures of the rebuild.
	Err error
}

// Watcher rebuilds a fresh Broker for a directory whenever files in it
// change. Events are debounced so a burst of writes causes one rebuild.
type Watcher struct {
	dir      string
	opts     []Option
	filter   *Broker
	onResult func(Result)
	debounce time.Duration

	fsWatcher *fsnotify.Watcher
	stop      chan struct{}
	// flushes carries debounce expiries to the event loop, which runs
	// every rebuild after the initial one.
	flushes chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending map[string]bool
	timer   *time.Timer
	stopped bool
}

func NewWatcher(dir string, onResult func(Result), opts ...Option) (*Watcher, error) {
	if onResult == nil {
		return nil, os.ErrInvalid
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:       dir,
		opts:      opts,
		filter:    New(opts...),
		onResult:  onResult,
		debounce:  100 * time.Millisecond,
		fsWatcher: fsw,
		stop:      make(chan struct{}),
		flushes:   make(chan struct{}, 1),
		pending:   make(map[string]bool),
	}, nil
}

func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounce = d
}

// Start builds the directory once, reporting the result before it returns,
// and then watches for changes until Stop is called or ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watchRecursive(w.dir); err != nil {
		w.fsWatcher.Close()
		return err
	}
	w.rebuild(nil)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.fsWatcher.Close()
		log.Infof("watching %s", w.dir)
		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				w.handle(event)
			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.Errorf("watcher: %s", err)
			case <-w.flushes:
				w.flush()
			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop ends watching and waits for the event loop to exit, including a
// rebuild in progress. A pending rebuild is dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	close(w.stop)
	w.wg.Wait()
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != w.dir && w.filter.excluded(w.dir, path) {
			return filepath.SkipDir
		}
		return w.fsWatcher.Add(path)
	})
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if w.filter.excluded(w.dir, event.Name) {
				return
			}
			if err := w.watchRecursive(event.Name); err != nil {
				log.Warningf("watch %s: %s", event.Name, err)
			}
			w.schedule(event.Name)
			return
		}
	}
	if !w.filter.hasExtension(event.Name) || w.filter.excluded(w.dir, event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.schedule(event.Name)
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.pending[path] = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.flushes <- struct{}{}:
		default:
		}
	})
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.stopped || len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(w.pending))
	for path := range w.pending {
		changed = append(changed, path)
	}
	w.pending = make(map[string]bool)
	w.mu.Unlock()

	sort.Strings(changed)
	w.rebuild(changed)
}

func (w *Watcher) rebuild(changed []string) {
	b := New(w.opts...)
	_, err := b.ProcessDirectory(w.dir)
	if len(changed) > 0 {
		log.Debugf("rebuilt %s after %d change(s)", w.dir, len(changed))
	}
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}
	w.onResult(Result{Broker: b, Changed: changed, Err: err})
}
