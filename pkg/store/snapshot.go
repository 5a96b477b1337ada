package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsputnikov/meta/pkg/model"
)

// readSnapshot loads a persisted state. A missing file returns (nil, nil);
// a file that cannot be parsed, or parses to something that is not a state
// object, returns an error and the caller starts fresh.
func readSnapshot(path string) (*model.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var state model.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if state.Servers == nil {
		return nil, fmt.Errorf("snapshot has no servers map")
	}
	return &state, nil
}

// writeSnapshot persists the whole state with a write-then-rename so a
// reader of the file never observes a partial write.
func writeSnapshot(path string, state *model.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create snapshot temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
