package plan

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/szaher/pomsmith/internal/state"
)

// DriftResult describes POM files that changed outside pomsmith since
// they were last transformed.
type DriftResult struct {
	HasDrift bool
	Drifted  []DriftEntry
}

// DriftEntry describes a single drifted file.
type DriftEntry struct {
	Path     string
	Expected string
	Actual   string
	Type     string // "missing", "hash_mismatch"
}

// DetectDrift compares recorded state against the files on disk.
func DetectDrift(root string, current []state.Entry) (*DriftResult, error) {
	result := &DriftResult{}

	for _, e := range current {
		if e.Status != state.StatusApplied {
			continue
		}
		data, err := os.ReadFile(filepath.Join(root, e.Path))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				result.Drifted = append(result.Drifted, DriftEntry{
					Path:     e.Path,
					Expected: e.Hash,
					Type:     "missing",
				})
				result.HasDrift = true
				continue
			}
			return nil, err
		}
		if actual := state.HashBytes(data); actual != e.Hash {
			result.Drifted = append(result.Drifted, DriftEntry{
				Path:     e.Path,
				Expected: e.Hash,
				Actual:   actual,
				Type:     "hash_mismatch",
			})
			result.HasDrift = true
		}
	}
	return result, nil
}
