// Package watch implements the file watcher and invalidation subsystem:
// write/create events are coalesced by a short debounce and reindexed,
// served from the symbol cache when the content hash still matches;
// remove/rename events drop the file from the index and the cache
// immediately.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lsmcp-dev/lsmcp/internal/symbolindex"
)

var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true,
	"target": true, "dist": true, "build": true, "__pycache__": true,
}

// ReindexFunc re-parses file into its current symbols, typically by
// acquiring a pooled server and issuing textDocument/documentSymbol.
type ReindexFunc func(file string) ([]*symbolindex.Symbol, error)

// Watcher watches a project root for filesystem changes and keeps an
// Index and Cache consistent with them
type Watcher struct {
	root      string
	fsWatcher *fsnotify.Watcher
	debouncer *debouncer
	index     *symbolindex.Index
	cache     *symbolindex.Cache
	bus       *symbolindex.Bus
	reindex   ReindexFunc
	logger    *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New constructs a Watcher rooted at root.
func New(root string, index *symbolindex.Index, cache *symbolindex.Cache, bus *symbolindex.Bus, reindex ReindexFunc, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:      root,
		fsWatcher: fsWatcher,
		index:     index,
		cache:     cache,
		bus:       bus,
		reindex:   reindex,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
	w.debouncer = newDebouncer(150*time.Millisecond, w.flushWrites)
	return w, nil
}

// Start adds every non-ignored directory under root to the watch set and
// begins the event loop.
func (w *Watcher) Start() error {
	dirs, err := w.findDirectories()
	if err != nil {
		return err
	}
	for _, dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
	}
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop halts the event loop and releases the underlying fsnotify watcher.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
	w.debouncer.stop()
	return w.fsWatcher.Close()
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.shouldIgnore(event.Name) {
				continue
			}
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.logger.Debug("file removed", zap.String("file", event.Name))
		w.index.RemoveFile(event.Name)
		if relPath, err := filepath.Rel(w.root, event.Name); err == nil {
			w.cache.Invalidate(w.root, relPath)
		}
		w.bus.Publish(symbolindex.Event{Kind: symbolindex.EventFileRemoved, File: event.Name})

	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.fsWatcher.Add(event.Name)
			return
		}
		w.debouncer.add(event.Name)
	}
}

// flushWrites is the debouncer callback: it reindexes every coalesced file,
// consulting the cache before ever reaching for the language server, and
// publishes the result.
func (w *Watcher) flushWrites(files []string) {
	for _, file := range files {
		w.reindexOne(file)
	}
}

// reindexOne resolves the current symbols for file, serving them from the
// cache when the file's content hash is still current and only falling
// back to reindex (an LSP round trip) on a cache miss.
func (w *Watcher) reindexOne(file string) {
	content, err := os.ReadFile(file)
	if err != nil {
		w.logger.Debug("read for reindex failed", zap.String("file", file), zap.Error(err))
		w.bus.Publish(symbolindex.Event{Kind: symbolindex.EventIndexError, File: file, Err: err})
		return
	}
	hash := symbolindex.HashContent(content)
	relPath, err := filepath.Rel(w.root, file)
	if err != nil {
		relPath = file
	}

	symbols, hit := w.cache.Get(w.root, relPath, hash)
	if !hit {
		symbols, err = w.reindex(file)
		if err != nil {
			w.logger.Debug("reindex failed", zap.String("file", file), zap.Error(err))
			w.bus.Publish(symbolindex.Event{Kind: symbolindex.EventIndexError, File: file, Err: err})
			return
		}
		if putErr := w.cache.Put(w.root, relPath, hash, symbols); putErr != nil {
			w.logger.Debug("cache put failed", zap.String("file", file), zap.Error(putErr))
		}
	}

	w.index.IndexFile(file, symbols)
	w.bus.Publish(symbolindex.Event{Kind: symbolindex.EventFileIndexed, File: file, Symbols: len(symbols)})

	externalCount := 0
	for _, s := range symbols {
		if s.External {
			externalCount++
		}
	}
	if externalCount > 0 {
		w.bus.Publish(symbolindex.Event{Kind: symbolindex.EventExternalLibrariesIndexed, File: file, Symbols: externalCount})
	}
}

func (w *Watcher) findDirectories() ([]string, error) {
	var dirs []string
	err := filepath.Walk(w.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if skipDirs[filepath.Base(path)] {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

func (w *Watcher) shouldIgnore(path string) bool {
	for dir := range skipDirs {
		if strings.Contains(string(filepath.Separator)+path, string(filepath.Separator)+dir+string(filepath.Separator)) {
			return true
		}
	}
	return strings.HasPrefix(filepath.Base(path), ".")
}

// debouncer coalesces rapid-fire writes to the same files into a single
// callback invocation after a quiet period.
type debouncer struct {
	duration time.Duration
	callback func([]string)

	mu    sync.Mutex
	files map[string]struct{}
	timer *time.Timer
}

func newDebouncer(d time.Duration, callback func([]string)) *debouncer {
	return &debouncer{duration: d, callback: callback, files: make(map[string]struct{})}
}

func (d *debouncer) add(file string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[file] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, d.flush)
}

func (d *debouncer) flush() {
	d.mu.Lock()
	files := make([]string, 0, len(d.files))
	for f := range d.files {
		files = append(files, f)
	}
	d.files = make(map[string]struct{})
	d.mu.Unlock()

	if len(files) > 0 && d.callback != nil {
		d.callback(files)
	}
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}
