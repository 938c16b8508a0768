package replay

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

var ErrCheckpointMismatch = errors.New("checkpoint does not match replay")

// Checkpoint marks how far into the operation log records have been written.
type Checkpoint struct {
	PoolID           string `json:"pool_id"`
	LastProcessedSeq uint64 `json:"last_processed_seq"`
	Operations       int    `json:"operations"`
	UpdatedAt        string `json:"updated_at"`
}

// CheckpointStore persists the replay position of one pool. A nil store
// disables checkpointing.
type CheckpointStore struct {
	path   string
	poolID string
}

func NewCheckpointStore(path, poolID string, enabled bool) *CheckpointStore {
	if !enabled || path == "" {
		return nil
	}
	return &CheckpointStore{path: path, poolID: poolID}
}

// Load returns the saved checkpoint, or false when there is none. A
// checkpoint written for a different pool is rejected.
func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if c == nil {
		return Checkpoint{}, false, nil
	}
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint %s: %w", c.path, err)
	}
	if cp.PoolID != c.poolID {
		return Checkpoint{}, false, fmt.Errorf("checkpoint for pool %q, replaying %q: %w", cp.PoolID, c.poolID, ErrCheckpointMismatch)
	}
	return cp, true, nil
}

// Save records that the first n operations, ending at seq, are stored.
func (c *CheckpointStore) Save(seq uint64, n int) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(Checkpoint{
		PoolID:           c.poolID,
		LastProcessedSeq: seq,
		Operations:       n,
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("create checkpoint tmp: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}
