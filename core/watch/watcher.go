// Package watch monitors skill directories and translates debounced file
// system events into collection mutations. It wraps fsnotify with per-path
// debouncing and glob-based exclusion; the engine itself only ever sees
// discrete add/remove/replace calls.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DefaultDebounce is the default debounce interval for file events.
const DefaultDebounce = 100 * time.Millisecond

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrNoPathsConfigured indicates no watch paths were specified.
	ErrNoPathsConfigured = errors.New("no paths configured for watching")

	// ErrPathNotExist indicates a watch path does not exist.
	ErrPathNotExist = errors.New("watch path does not exist")

	// ErrPathNotDirectory indicates a watch path is not a directory.
	ErrPathNotDirectory = errors.New("watch path is not a directory")

	// ErrInvalidPattern indicates an exclude pattern could not be compiled.
	ErrInvalidPattern = errors.New("invalid exclude pattern")
)

// =============================================================================
// Event
// =============================================================================

// Op is the kind of skill file change.
type Op int

const (
	// OpAdd indicates a new skill file appeared.
	OpAdd Op = iota
	// OpChange indicates an existing skill file was modified.
	OpChange
	// OpRemove indicates a skill file was removed.
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpChange:
		return "change"
	case OpRemove:
		return "remove"
	}
	return "unknown"
}

// Event is a debounced skill file change.
type Event struct {
	// Path is the absolute path of the changed skill file.
	Path string

	// Op is the kind of change.
	Op Op

	// Time is when the event was detected.
	Time time.Time
}

// =============================================================================
// Config
// =============================================================================

// Config configures the skill watcher.
type Config struct {
	// Paths are the skill directories to watch recursively.
	Paths []string

	// ExcludePatterns are glob patterns for paths to ignore.
	ExcludePatterns []string

	// Debounce is the interval to wait before emitting events for the
	// same path. Defaults to DefaultDebounce.
	Debounce time.Duration
}

// DefaultConfig returns a configuration watching a single root.
func DefaultConfig(root string) Config {
	return Config{
		Paths:    []string{root},
		Debounce: DefaultDebounce,
	}
}

type pendingEvent struct {
	event *Event
	timer *time.Timer
}

// =============================================================================
// Watcher
// =============================================================================

// Watcher monitors skill directories for SKILL.md and *.json changes.
type Watcher struct {
	config   Config
	watcher  *fsnotify.Watcher
	excludes []glob.Glob

	mu       sync.Mutex
	pending  map[string]*pendingEvent
	eventCh  chan *Event
	fired    chan string
	done     chan struct{}
	stopOnce sync.Once
	stopped  bool
}

// New creates a watcher. Returns an error if paths are invalid or
// exclude patterns cannot be compiled.
func New(config Config) (*Watcher, error) {
	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	excludes, err := compilePatterns(config.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		config:   config,
		watcher:  fsw,
		excludes: excludes,
		pending:  make(map[string]*pendingEvent),
		fired:    make(chan string, 64),
		done:     make(chan struct{}),
	}, nil
}

func validateConfig(config *Config) error {
	if len(config.Paths) == 0 {
		return ErrNoPathsConfigured
	}
	for _, path := range config.Paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return ErrPathNotExist
			}
			return err
		}
		if !info.IsDir() {
			return ErrPathNotDirectory
		}
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	return nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	excludes := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		excludes = append(excludes, g)
	}
	return excludes, nil
}

// Start begins watching. The returned channel closes when the context is
// cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) (<-chan *Event, error) {
	w.eventCh = make(chan *Event)

	for _, path := range w.config.Paths {
		if err := w.addRecursive(path); err != nil {
			close(w.eventCh)
			return nil, err
		}
	}

	go w.run(ctx)
	return w.eventCh, nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.isExcluded(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.cleanup()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case path := <-w.fired:
			w.forward(ctx, path)
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// forward delivers a debounced event. Only the run goroutine sends on
// eventCh, so channel close stays race-free.
func (w *Watcher) forward(ctx context.Context, path string) {
	w.mu.Lock()
	p, ok := w.pending[path]
	if ok {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if !ok {
		return
	}
	select {
	case w.eventCh <- p.event:
	case <-ctx.Done():
	case <-w.done:
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if w.isExcluded(event.Name) {
		return
	}

	// New directories join the watch so nested skills keep reloading.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.addRecursive(event.Name)
			return
		}
	}

	if !isSkillFile(event.Name) {
		return
	}
	w.schedule(event.Name, mapOp(event.Op))
}

// isSkillFile limits events to the file shapes the engine loads.
func isSkillFile(path string) bool {
	base := filepath.Base(path)
	return base == "SKILL.md" || base == "skill.md" || strings.HasSuffix(base, ".json")
}

func mapOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpAdd
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return OpRemove
	default:
		return OpChange
	}
}

// schedule debounces events per path: a rapid burst of writes to the same
// file emits one event carrying the last operation seen.
func (w *Watcher) schedule(path string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	if p, ok := w.pending[path]; ok {
		p.event.Op = op
		p.event.Time = time.Now()
		p.timer.Reset(w.config.Debounce)
		return
	}

	event := &Event{Path: path, Op: op, Time: time.Now()}
	w.pending[path] = &pendingEvent{
		event: event,
		timer: time.AfterFunc(w.config.Debounce, func() { w.emit(path) }),
	}
}

// emit hands the fired path to the run goroutine for delivery.
func (w *Watcher) emit(path string) {
	select {
	case w.fired <- path:
	case <-w.done:
	}
}

// Stop shuts the watcher down and closes the event channel.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		for path, p := range w.pending {
			p.timer.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()

		close(w.done)
		_ = w.watcher.Close()
	})
}

func (w *Watcher) cleanup() {
	w.Stop()
	close(w.eventCh)
}

func (w *Watcher) isExcluded(path string) bool {
	for _, g := range w.excludes {
		if g.Match(path) {
			return true
		}
	}
	return false
}
