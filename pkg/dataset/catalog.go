package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/versemark/versemark/pkg/index"
)

// Snapshot is one fully built index and the data it came from.
type Snapshot struct {
	Index       *index.Index
	Report      index.Report
	Fingerprint string
	LoadedAt    time.Time
}

// Catalog holds the current snapshot. Readers always see a complete index;
// a reload builds a new one and swaps it in.
type Catalog struct {
	path    string
	opts    []index.Option
	log     index.Logger
	current atomic.Pointer[Snapshot]

	mu        sync.Mutex
	callbacks []func(*Snapshot)
}

// NewCatalog loads path and builds the first snapshot.
func NewCatalog(path string, log index.Logger, opts ...index.Option) (*Catalog, error) {
	if log == nil {
		log = index.NopLogger{}
	}
	c := &Catalog{path: path, log: log, opts: append([]index.Option{index.WithLogger(log)}, opts...)}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewStaticCatalog builds a catalog from in-memory records. Reload is a
// no-op for it.
func NewStaticCatalog(records []index.Record, opts ...index.Option) *Catalog {
	c := &Catalog{log: index.NopLogger{}, opts: opts}
	c.current.Store(build(records, opts))
	return c
}

func build(records []index.Record, opts []index.Option) *Snapshot {
	ix, report := index.Build(records, opts...)
	return &Snapshot{
		Index:       ix,
		Report:      report,
		Fingerprint: Fingerprint(records),
		LoadedAt:    time.Now().UTC(),
	}
}

// Current returns the snapshot in use.
func (c *Catalog) Current() *Snapshot {
	return c.current.Load()
}

// Path returns the dataset file backing the catalog, "" for static catalogs.
func (c *Catalog) Path() string {
	return c.path
}

// OnReload registers fn to run after every successful reload.
func (c *Catalog) OnReload(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.callbacks = append(c.callbacks, fn)
}

// Reload rebuilds the index from disk. On error the previous snapshot stays
// in place.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}
	records, err := Load(c.path)
	if err != nil {
		return fmt.Errorf("loading dataset %s: %w", c.path, err)
	}
	snap := build(records, c.opts)
	prev := c.current.Swap(snap)

	if prev != nil && prev.Fingerprint == snap.Fingerprint {
		c.log.Debugf("Dataset %s reloaded, content unchanged", c.path)
	} else {
		c.log.Infof("Indexed %d of %d citations from %s (%d skipped)", snap.Report.Indexed, snap.Report.Records, c.path, len(snap.Report.Skipped))
	}

	c.mu.Lock()
	callbacks := append([]func(*Snapshot){}, c.callbacks...)
	c.mu.Unlock()
	for _, fn := range callbacks {
		fn(snap)
	}
	return nil
}

// Watch reloads the catalog whenever the dataset file is written, created
// or renamed into place. It blocks until ctx is done.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		<-ctx.Done()
		return nil
	}
	target, err := filepath.Abs(c.path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: editors and Save replace the file by rename.
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || name != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if err := c.Reload(); err != nil {
				c.log.Warnf("Dataset reload failed, keeping previous index: %v", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			c.log.Warnf("Dataset watcher error: %v", err)
		}
	}
}
