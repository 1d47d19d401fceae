package indexer

import (
	"context"
	"errors"
	"io/fs"

	"simfinder/internal/filesystem"
	"simfinder/internal/logging"
	"simfinder/internal/metrics"
	"simfinder/internal/store"
)

// PruneMissing removes every record whose file no longer exists on disk
// and returns how many were removed. This is the explicit counterpart
// to the lazy filtering searches do; nothing calls it automatically.
//
// Only a definite not-exist removes a record. A path that fails to stat
// for any other reason (permissions, transient NFS trouble) is left
// alone rather than forgotten.
func PruneMissing(ctx context.Context, st *store.Store, retry filesystem.RetryConfig) (int64, error) {
	cur, err := st.Scan(ctx)
	if err != nil {
		return 0, err
	}

	var missing []string
	for cur.Next() {
		if err := ctx.Err(); err != nil {
			_ = cur.Close()
			return 0, err
		}

		path := cur.Record().Path
		if _, statErr := filesystem.StatWithRetry(path, retry); errors.Is(statErr, fs.ErrNotExist) {
			missing = append(missing, path)
		}
	}
	if err := cur.Err(); err != nil {
		_ = cur.Close()
		return 0, err
	}
	if err := cur.Close(); err != nil {
		return 0, err
	}

	if len(missing) == 0 {
		return 0, nil
	}

	tx, err := st.BeginBatch()
	if err != nil {
		return 0, err
	}
	removed, err := st.DeletePathsTx(tx, missing)
	if err := st.EndBatch(tx, err); err != nil {
		return 0, err
	}

	metrics.IndexerRecordsPruned.Add(float64(removed))
	logging.Info("Pruned %d missing files from %s", removed, st.Name())
	return removed, nil
}
