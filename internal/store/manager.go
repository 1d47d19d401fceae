package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"simfinder/internal/errs"
	"simfinder/internal/logging"
	"simfinder/internal/metrics"
)

// Manager owns the data directory and hands out stores by name. Stores
// stay open once touched; the process-lifetime cache keeps WAL files
// from churning on every request.
type Manager struct {
	dataDir string

	mu    sync.Mutex
	open  map[string]*Store
	stats sync.Map // name -> last known record count, for cheap stats
}

// NewManager creates a manager rooted at dataDir. The directory must
// exist; startup validation ensures that before the manager is built.
func NewManager(dataDir string) *Manager {
	return &Manager{
		dataDir: dataDir,
		open:    make(map[string]*Store),
	}
}

// DataDir returns the directory holding the store files.
func (m *Manager) DataDir() string {
	return m.dataDir
}

// OpenOrCreate returns the store for the given source directory,
// creating it when absent. The directory's absolute path is recorded in
// the store so listings can report what it indexes.
func (m *Manager) OpenOrCreate(ctx context.Context, directory string) (*Store, error) {
	abs, err := filepath.Abs(directory)
	if err != nil {
		return nil, errs.Store("open", directory, err)
	}

	name := Name(abs)
	s, err := m.openByName(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := s.SetMeta(ctx, SourcePathKey, abs); err != nil {
		return nil, err
	}
	return s, nil
}

// Open returns the store with the given file name. It reports
// errs.NotFoundError when no such store file exists.
func (m *Manager) Open(ctx context.Context, name string) (*Store, error) {
	if !ValidName(name) {
		return nil, errs.NotFound(name)
	}
	if _, err := os.Stat(filepath.Join(m.dataDir, name)); err != nil {
		return nil, errs.NotFound(name)
	}
	return m.openByName(ctx, name)
}

func (m *Manager) openByName(ctx context.Context, name string) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.open[name]; ok {
		return s, nil
	}

	s, err := Open(ctx, filepath.Join(m.dataDir, name))
	if err != nil {
		return nil, err
	}
	m.open[name] = s
	return s, nil
}

// List returns every store in the data directory, sorted by name, with
// its recorded source directory and record count.
func (m *Manager) List(ctx context.Context) ([]IndexInfo, error) {
	names, err := m.names()
	if err != nil {
		return nil, err
	}

	infos := make([]IndexInfo, 0, len(names))
	for _, name := range names {
		s, err := m.openByName(ctx, name)
		if err != nil {
			// A corrupt or foreign .db file should not hide the rest.
			logging.Warn("Skipping unreadable store %s: %v", name, err)
			continue
		}

		source, _, err := s.SourcePath(ctx)
		if err != nil {
			return nil, err
		}
		count, err := s.RecordCount(ctx)
		if err != nil {
			return nil, err
		}

		m.stats.Store(name, count)
		infos = append(infos, IndexInfo{
			Name:       name,
			SourcePath: source,
			Records:    count,
		})
	}
	return infos, nil
}

// Delete closes and removes the named store together with its WAL
// sidecar files. It reports errs.NotFoundError when no such store
// exists.
func (m *Manager) Delete(name string) error {
	if !ValidName(name) {
		return errs.NotFound(name)
	}

	path := filepath.Join(m.dataDir, name)
	if _, err := os.Stat(path); err != nil {
		return errs.NotFound(name)
	}

	m.mu.Lock()
	if s, ok := m.open[name]; ok {
		if err := s.Close(); err != nil {
			logging.Error("failed to close store %s before delete: %v", name, err)
		}
		delete(m.open, name)
	}
	m.mu.Unlock()
	m.stats.Delete(name)

	if err := os.Remove(path); err != nil {
		return errs.Store("delete", name, err)
	}
	// WAL sidecars disappear on a clean close, but not after a crash.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.Warn("failed to remove %s%s: %v", name, suffix, err)
		}
	}

	logging.Info("Deleted store %s", name)
	return nil
}

// Close closes every open store.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errList []error
	for name, s := range m.open {
		if err := s.Close(); err != nil {
			errList = append(errList, fmt.Errorf("close %s: %w", name, err))
		}
		delete(m.open, name)
	}
	return errors.Join(errList...)
}

// names returns the store file names in the data directory, sorted.
func (m *Manager) names() ([]string, error) {
	entries, err := os.ReadDir(m.dataDir)
	if err != nil {
		return nil, errs.Store("list", "", err)
	}

	// ReadDir returns entries sorted by name.
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// GetStats implements metrics.StatsProvider. Record counts come from
// the last List or indexing pass rather than a fresh COUNT(*) per
// scrape.
func (m *Manager) GetStats() (metrics.Stats, error) {
	names, err := m.names()
	if err != nil {
		return metrics.Stats{}, err
	}

	stats := metrics.Stats{
		Indexes:        len(names),
		RecordsByIndex: make(map[string]int, len(names)),
		StoreBytes:     make(map[string]int64, len(names)),
	}
	for _, name := range names {
		if v, ok := m.stats.Load(name); ok {
			stats.RecordsByIndex[name] = v.(int)
		}
		if fi, err := os.Stat(filepath.Join(m.dataDir, name)); err == nil {
			stats.StoreBytes[name] = fi.Size()
		}
	}
	return stats, nil
}

// RecordCountHint updates the cached record count used for stats.
func (m *Manager) RecordCountHint(name string, count int) {
	m.stats.Store(name, count)
}
