// Package state tracks which POM files a recipe has already
// transformed, so re-running a recipe skips files that are up to date.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Status represents the recorded outcome for one file.
type Status string

const (
	StatusApplied Status = "applied"
	StatusFailed  Status = "failed"
)

// Entry records the state of a single POM file after a run.
type Entry struct {
	Path        string    `json:"path"`
	Hash        string    `json:"hash"`
	RecipeHash  string    `json:"recipe_hash"`
	Status      Status    `json:"status"`
	LastApplied time.Time `json:"last_applied"`
	Error       string    `json:"error,omitempty"`
}

// Backend is the interface for state persistence.
type Backend interface {
	// Load reads all state entries from the backend.
	Load() ([]Entry, error)

	// Save writes all state entries to the backend.
	Save(entries []Entry) error

	// Get retrieves a single entry by file path.
	Get(path string) (*Entry, error)

	// List returns all entries, optionally filtered by status.
	List(status *Status) ([]Entry, error)
}

// HashBytes returns the content hash recorded in state entries.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
