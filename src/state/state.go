// Package state persists the latest parse run to disk so other
// processes (the MCP server in watch mode) can pick it up.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"docsift/src/contracts"
)

// FileName is the state file written inside the state directory.
const FileName = "state.json"

// State is a snapshot of the most recent parse run.
type State struct {
	RunID     string              `json:"run_id"`
	Source    string              `json:"source"`
	UpdatedAt time.Time           `json:"updated_at"`
	BuildInfo contracts.BuildInfo `json:"build_info"`
	Issues    []contracts.Issue   `json:"issues"`
	RawTail   []string            `json:"raw_tail,omitempty"`
}

// Write atomically replaces the state file in dir, creating dir if needed.
// Atomic replace keeps concurrent readers from seeing a half-written file.
func Write(dir string, st *State) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, FileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close state file: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, FileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}
	return nil
}

// Read loads the state file from dir. A missing file returns os.ErrNotExist.
func Read(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse state file: %w", err)
	}
	return &st, nil
}
