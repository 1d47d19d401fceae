// Package coordinator owns the running system: it serializes writers
// per store, runs indexing jobs on their own goroutines, and tags every
// operation with a generation so stale results can never clobber newer
// ones.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"simfinder/internal/filesystem"
	"simfinder/internal/indexer"
	"simfinder/internal/logging"
	"simfinder/internal/memory"
	"simfinder/internal/search"
	"simfinder/internal/store"
)

var (
	// ErrIndexRunning is reported when a write operation is requested
	// on a store that already has an active writer.
	ErrIndexRunning = errors.New("an indexing job is already running for this index")

	// ErrSuperseded is reported when an operation finished but a newer
	// request on the same slot had already replaced it.
	ErrSuperseded = errors.New("superseded by a newer request")
)

// Completed jobs kept around for status lookups
const jobRetention = 100

// Coordinator routes index and search operations to stores, enforcing
// one writer per store and generation ordering per slot.
type Coordinator struct {
	manager     *store.Manager
	engine      *search.Engine
	monitor     *memory.Monitor
	indexConfig indexer.Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	jobs       map[uuid.UUID]*Job
	jobOrder   []uuid.UUID
	writers    map[string]bool   // store name -> writer active
	indexGens  map[string]uint64 // store name -> latest index generation
	searchGens map[string]uint64 // store name -> latest search generation
}

// New creates a coordinator. The memory monitor may be nil.
func New(manager *store.Manager, engine *search.Engine, monitor *memory.Monitor, indexConfig indexer.Config) *Coordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Coordinator{
		manager:     manager,
		engine:      engine,
		monitor:     monitor,
		indexConfig: indexConfig,
		ctx:         ctx,
		cancel:      cancel,
		jobs:        make(map[uuid.UUID]*Job),
		writers:     make(map[string]bool),
		indexGens:   make(map[string]uint64),
		searchGens:  make(map[string]uint64),
	}
}

// Close stops accepting work, cancels running jobs, and waits for them
// to wind down.
func (c *Coordinator) Close() {
	c.cancel()
	c.wg.Wait()
}

// CreateIndex opens (or creates) the store for a source directory and
// returns its listing entry. The directory must exist.
func (c *Coordinator) CreateIndex(ctx context.Context, directory string) (store.IndexInfo, error) {
	fi, err := os.Stat(directory)
	if err != nil {
		return store.IndexInfo{}, fmt.Errorf("source directory %s: %w", directory, err)
	}
	if !fi.IsDir() {
		return store.IndexInfo{}, fmt.Errorf("source path %s is not a directory", directory)
	}

	st, err := c.manager.OpenOrCreate(ctx, directory)
	if err != nil {
		return store.IndexInfo{}, err
	}

	source, _, err := st.SourcePath(ctx)
	if err != nil {
		return store.IndexInfo{}, err
	}
	count, err := st.RecordCount(ctx)
	if err != nil {
		return store.IndexInfo{}, err
	}

	logging.Info("Index %s registered for %s (%d records)", st.Name(), source, count)
	return store.IndexInfo{Name: st.Name(), SourcePath: source, Records: count}, nil
}

// ListIndexes returns every registered index.
func (c *Coordinator) ListIndexes(ctx context.Context) ([]store.IndexInfo, error) {
	return c.manager.List(ctx)
}

// DeleteIndex removes a store. It refuses while a writer is active on
// that store.
func (c *Coordinator) DeleteIndex(name string) error {
	if !c.acquireWriter(name) {
		return ErrIndexRunning
	}
	defer c.releaseWriter(name)

	if err := c.manager.Delete(name); err != nil {
		return err
	}

	c.mu.Lock()
	delete(c.indexGens, name)
	delete(c.searchGens, name)
	c.mu.Unlock()
	return nil
}

// Prune removes records whose files are gone from disk. Like indexing,
// it is a writer and conflicts with an active indexing job.
func (c *Coordinator) Prune(ctx context.Context, name string) (int64, error) {
	st, err := c.manager.Open(ctx, name)
	if err != nil {
		return 0, err
	}

	if !c.acquireWriter(name) {
		return 0, ErrIndexRunning
	}
	defer c.releaseWriter(name)

	return indexer.PruneMissing(ctx, st, c.indexConfig.Retry)
}

// sourceDirOf resolves the directory a store indexes from its metadata.
func (c *Coordinator) sourceDirOf(ctx context.Context, st *store.Store) (string, error) {
	dir, ok, err := st.SourcePath(ctx)
	if err != nil {
		return "", err
	}
	if !ok || dir == "" {
		return "", fmt.Errorf("store %s has no recorded source directory", st.Name())
	}
	return dir, nil
}

func (c *Coordinator) acquireWriter(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writers[name] {
		return false
	}
	c.writers[name] = true
	return true
}

func (c *Coordinator) releaseWriter(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.writers, name)
}

// RetryConfig exposes the filesystem retry settings operations run with.
func (c *Coordinator) RetryConfig() filesystem.RetryConfig {
	return c.indexConfig.Retry
}
