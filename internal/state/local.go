package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"
)

// LocalBackend implements Backend using a local JSON file. A lock file
// next to the state file serializes concurrent pomsmith invocations
// against the same project.
type LocalBackend struct {
	Path string

	lockConfig LockConfig
}

// LockConfig controls state file locking.
type LockConfig struct {
	// LockTimeout is how long to wait for the lock before giving up.
	LockTimeout time.Duration

	// StaleThreshold is the age after which a leftover lock from a
	// crashed run is broken.
	StaleThreshold time.Duration
}

// DefaultLockConfig returns the lock settings used when none are given.
func DefaultLockConfig() LockConfig {
	return LockConfig{
		LockTimeout:    30 * time.Second,
		StaleThreshold: 5 * time.Minute,
	}
}

// NewLocalBackend creates a new local JSON state backend.
func NewLocalBackend(path string) *LocalBackend {
	return &LocalBackend{
		Path:       path,
		lockConfig: DefaultLockConfig(),
	}
}

// WithLockConfig overrides lock settings. Zero fields keep their
// defaults. Returns the backend for chaining.
func (b *LocalBackend) WithLockConfig(cfg LockConfig) *LocalBackend {
	if cfg.LockTimeout > 0 {
		b.lockConfig.LockTimeout = cfg.LockTimeout
	}
	if cfg.StaleThreshold > 0 {
		b.lockConfig.StaleThreshold = cfg.StaleThreshold
	}
	return b
}

// stateFile is the on-disk JSON structure.
type stateFile struct {
	Version string  `json:"version"`
	Entries []Entry `json:"entries"`
}

// lockInfo is the content of the lock file.
type lockInfo struct {
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

func (b *LocalBackend) lockPath() string {
	return b.Path + ".lock"
}

// Lock acquires the state lock, waiting up to LockTimeout. Locks older
// than StaleThreshold are broken.
func (b *LocalBackend) Lock() error {
	deadline := time.Now().Add(b.lockConfig.LockTimeout)
	for {
		f, err := os.OpenFile(b.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
		if err == nil {
			info := lockInfo{PID: os.Getpid(), AcquiredAt: time.Now()}
			data, _ := json.Marshal(info)
			_, werr := f.Write(data)
			cerr := f.Close()
			if werr != nil {
				return werr
			}
			return cerr
		}
		if !errors.Is(err, os.ErrExist) {
			return fmt.Errorf("acquiring state lock: %w", err)
		}

		if data, rerr := os.ReadFile(b.lockPath()); rerr == nil {
			var info lockInfo
			if jerr := json.Unmarshal(data, &info); jerr == nil &&
				time.Since(info.AcquiredAt) > b.lockConfig.StaleThreshold {
				_ = os.Remove(b.lockPath())
				continue
			}
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for state lock %s", b.lockPath())
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Unlock releases the state lock.
func (b *LocalBackend) Unlock() error {
	if err := os.Remove(b.lockPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Load reads all state entries from the JSON file. A missing file is an
// empty state, not an error.
func (b *LocalBackend) Load() ([]Entry, error) {
	data, err := os.ReadFile(b.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, err
	}
	return sf.Entries, nil
}

// Save writes all state entries to the JSON file, sorted by path.
func (b *LocalBackend) Save(entries []Entry) error {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})
	sf := stateFile{
		Version: "1.0",
		Entries: entries,
	}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(b.Path, data, 0644)
}

// Get retrieves a single entry by file path.
func (b *LocalBackend) Get(path string) (*Entry, error) {
	entries, err := b.Load()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Path == path {
			return &entries[i], nil
		}
	}
	return nil, nil
}

// List returns all entries, optionally filtered by status.
func (b *LocalBackend) List(status *Status) ([]Entry, error) {
	entries, err := b.Load()
	if err != nil {
		return nil, err
	}
	if status == nil {
		return entries, nil
	}
	var filtered []Entry
	for _, e := range entries {
		if e.Status == *status {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}
