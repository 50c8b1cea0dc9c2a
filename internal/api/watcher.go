package api

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/amterp/postdeck/internal/debounce"
	"github.com/amterp/postdeck/internal/seed"
	"github.com/amterp/postdeck/internal/session"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// SeedDebounce coalesces the burst of events editors produce on save.
const SeedDebounce = 100 * time.Millisecond

// FileChangeType indicates what type of change occurred.
type FileChangeType string

const (
	FileChangeCreated  FileChangeType = "created"
	FileChangeModified FileChangeType = "modified"
	FileChangeDeleted  FileChangeType = "deleted"
)

// FileChangeKind indicates what kind of file changed.
type FileChangeKind string

const (
	FileChangeKindSeed    FileChangeKind = "seed"
	FileChangeKindUnknown FileChangeKind = "unknown"
)

// FileChange represents a file system change notification.
type FileChange struct {
	Type FileChangeType `json:"type"`
	Kind FileChangeKind `json:"kind"`
	Path string         `json:"path"`
}

// FileWatcherSubscriber receives file change notifications.
type FileWatcherSubscriber interface {
	OnFileChange(change FileChange)
}

// FileWatcher watches the seed file and notifies subscribers when it changes.
// It watches the parent directory, since editors often save by writing a
// temp file and renaming it over the original.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	seedPath string
	logger   zerolog.Logger

	mu          sync.RWMutex
	subscribers []FileWatcherSubscriber
	debouncer   *debounce.Debouncer[fsnotify.Event]
	stopCh      chan struct{}
	stopped     bool // Once stopped, cannot restart
	running     bool
}

// NewFileWatcher creates a watcher for seedPath.
func NewFileWatcher(seedPath string, logger zerolog.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(seedPath)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	fw := &FileWatcher{
		watcher:  watcher,
		seedPath: abs,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
	fw.debouncer = debounce.New(SeedDebounce, fw.emitChange)
	return fw, nil
}

// Subscribe adds a subscriber to receive file change notifications.
// Subscribers are called in subscription order.
func (fw *FileWatcher) Subscribe(sub FileWatcherSubscriber) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	fw.subscribers = append(fw.subscribers, sub)
}

// Unsubscribe removes a subscriber.
func (fw *FileWatcher) Unsubscribe(sub FileWatcherSubscriber) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	for i, s := range fw.subscribers {
		if s == sub {
			fw.subscribers = append(fw.subscribers[:i], fw.subscribers[i+1:]...)
			return
		}
	}
}

// Start begins watching.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	if fw.stopped {
		fw.mu.Unlock()
		return fmt.Errorf("file watcher cannot be restarted after stop")
	}
	fw.running = true
	fw.mu.Unlock()

	if err := fw.watcher.Add(filepath.Dir(fw.seedPath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(fw.seedPath), err)
	}

	go fw.run()
	return nil
}

// Stop stops watching for changes. A change still being debounced is dropped.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running || fw.stopped {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	fw.stopped = true
	fw.mu.Unlock()

	fw.debouncer.Stop()
	close(fw.stopCh)
	return fw.watcher.Close()
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string {
	return fw.seedPath
}

func (fw *FileWatcher) run() {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn().Err(err).Msg("file watcher error")

		case <-fw.stopCh:
			return
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	if fw.classifyChange(event).Kind == FileChangeKindUnknown {
		return
	}
	fw.debouncer.Trigger(event)
}

func (fw *FileWatcher) emitChange(event fsnotify.Event) {
	// Check if watcher was stopped (debounce timer may fire after Stop)
	fw.mu.RLock()
	if fw.stopped {
		fw.mu.RUnlock()
		return
	}
	subs := make([]FileWatcherSubscriber, len(fw.subscribers))
	copy(subs, fw.subscribers)
	fw.mu.RUnlock()

	change := fw.classifyChange(event)
	if change.Kind == FileChangeKindUnknown {
		return
	}

	for _, sub := range subs {
		sub.OnFileChange(change)
	}
}

func (fw *FileWatcher) classifyChange(event fsnotify.Event) FileChange {
	name := filepath.Clean(event.Name)
	if !filepath.IsAbs(name) {
		if abs, err := filepath.Abs(name); err == nil {
			name = abs
		}
	}

	// Editor swap and backup files share the directory.
	if name != fw.seedPath {
		return FileChange{Kind: FileChangeKindUnknown}
	}
	base := filepath.Base(name)

	change := FileChange{
		Kind: FileChangeKindSeed,
		Path: base,
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		change.Type = FileChangeCreated
	case event.Op&fsnotify.Write != 0:
		change.Type = FileChangeModified
	case event.Op&fsnotify.Remove != 0:
		change.Type = FileChangeDeleted
	case event.Op&fsnotify.Rename != 0:
		change.Type = FileChangeDeleted // Rename source is effectively deleted
	default:
		return FileChange{Kind: FileChangeKindUnknown}
	}

	return change
}

// SeedReloader reseeds every session when the seed file changes.
type SeedReloader struct {
	path    string
	manager *session.Manager
	logger  zerolog.Logger
}

// NewSeedReloader creates a subscriber reloading path into manager.
func NewSeedReloader(path string, manager *session.Manager, logger zerolog.Logger) *SeedReloader {
	return &SeedReloader{path: path, manager: manager, logger: logger}
}

// OnFileChange implements FileWatcherSubscriber. Deletions and unparsable
// files keep the current data.
func (r *SeedReloader) OnFileChange(change FileChange) {
	if change.Type == FileChangeDeleted {
		r.logger.Warn().Str("path", r.path).Msg("seed file removed, keeping current data")
		return
	}

	ds, err := seed.Load(r.path)
	if err != nil {
		r.logger.Warn().Err(err).Msg("seed reload failed, keeping current data")
		return
	}
	r.manager.Reseed(ds)
}
