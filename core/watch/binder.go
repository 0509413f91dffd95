package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/adalundhe/weft/core/collection"
	"github.com/adalundhe/weft/core/manifest"
)

// Binder applies watcher events to a collection: created and modified
// skill files are loaded through core/manifest and registered (replace
// semantics), removed files unregister their skill. Parse failures are
// logged and skipped so one broken edit never takes the collection down.
type Binder struct {
	collection *collection.Collection
	logger     *slog.Logger

	// byPath remembers which skill id each file produced so removals can
	// be mapped back without re-reading a file that no longer exists.
	byPath map[string]string
}

// NewBinder creates a binder targeting the given collection.
func NewBinder(c *collection.Collection, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{
		collection: c,
		logger:     logger,
		byPath:     make(map[string]string),
	}
}

// Run consumes events until the channel closes or the context ends.
func (b *Binder) Run(ctx context.Context, events <-chan *Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			b.Apply(event)
		}
	}
}

// Apply handles one event.
func (b *Binder) Apply(event *Event) {
	switch event.Op {
	case OpAdd, OpChange:
		b.load(event.Path)
	case OpRemove:
		b.unload(event.Path)
	}
}

func (b *Binder) load(path string) {
	record, err := loadRecord(path)
	if err != nil {
		b.logger.Warn("skipping unparseable skill file",
			"path", path, "error", err)
		return
	}

	if err := b.collection.Add(record); err != nil {
		b.logger.Warn("rejected skill record",
			"path", path, "skill", record.ID, "error", err)
		return
	}
	b.byPath[path] = record.ID
	b.logger.Debug("registered skill", "skill", record.ID, "path", path)
}

func (b *Binder) unload(path string) {
	id, ok := b.byPath[path]
	if !ok {
		return
	}
	delete(b.byPath, path)
	if b.collection.Remove(id) {
		b.logger.Debug("unregistered skill", "skill", id, "path", path)
	}
}

func loadRecord(path string) (*manifest.SkillRecord, error) {
	if strings.HasSuffix(path, ".json") {
		return manifest.LoadPackage(path)
	}
	return manifest.ReadSkillMD(filepath.Dir(path))
}
