package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/physarum/sim"
)

// SnapshotFile is the on-disk form of a simulation snapshot.
type SnapshotFile struct {
	*sim.Snapshot
	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// SaveSnapshot writes a snapshot to dir as snapshot_<tick>.json, with the
// bookmark type appended when one is given. Returns the written path.
func SaveSnapshot(snapshot *sim.Snapshot, bookmark *Bookmark, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if bookmark != nil {
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, bookmark.Type)
	}
	path := filepath.Join(dir, name+".json")

	data, err := json.Marshal(SnapshotFile{Snapshot: snapshot, Bookmark: bookmark})
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*SnapshotFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	file := SnapshotFile{Snapshot: &sim.Snapshot{}}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if file.Version != sim.SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", file.Version, sim.SnapshotVersion)
	}
	return &file, nil
}
