// Package hotreload reports script file changes under a directory tree.
package hotreload

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce groups editor save bursts into one batch
const DefaultDebounce = 100 * time.Millisecond

// Watcher batches file changes and delivers them on Events. It does not
// touch any engine; the goroutine that owns the manager reads Events and
// reloads itself.
type Watcher struct {
	watcher    *fsnotify.Watcher
	logger     *slog.Logger
	debounce   time.Duration
	extensions map[string]bool
	events     chan []string
	done       chan struct{}
}

// Options configures a Watcher
type Options struct {
	Debounce time.Duration
	// Extensions filters changes by suffix, e.g. ".js". Empty means every file.
	Extensions []string
	Logger     *slog.Logger
}

// New watches root and every directory below it. Reported paths are
// absolute even when root is relative.
func New(root string, opts Options) (*Watcher, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:    fw,
		logger:     opts.Logger,
		debounce:   opts.Debounce,
		extensions: make(map[string]bool),
		events:     make(chan []string, 1),
		done:       make(chan struct{}),
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	for _, ext := range opts.Extensions {
		w.extensions[ext] = true
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
				return filepath.SkipDir
			}
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		fw.Close()
		return nil, err
	}
	go w.run()
	return w, nil
}

// Events delivers sorted, de-duplicated batches of changed paths. The channel
// is closed by Close.
func (w *Watcher) Events() <-chan []string {
	return w.events
}

// Close stops watching
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) relevant(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	return len(w.extensions) == 0 || w.extensions[filepath.Ext(path)]
}

func (w *Watcher) run() {
	defer close(w.done)
	defer close(w.events)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(ev.Name); err != nil {
						w.logger.Warn("Failed to watch directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}
			if ev.Op == fsnotify.Chmod || !w.relevant(ev.Name) {
				continue
			}
			pending[ev.Name] = struct{}{}
			timer.Reset(w.debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("File watcher error", "error", err)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for path := range pending {
				batch = append(batch, path)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})
			select {
			case w.events <- batch:
			default:
				// Reader is behind; fold into the batch it has not taken yet
				select {
				case prev := <-w.events:
					batch = merge(prev, batch)
				default:
				}
				w.events <- batch
			}
		}
	}
}

func merge(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	var out []string
	for _, s := range append(a, b...) {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
