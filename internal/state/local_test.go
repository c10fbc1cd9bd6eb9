package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestBackend(t *testing.T) *LocalBackend {
	t.Helper()
	return NewLocalBackend(filepath.Join(t.TempDir(), ".pomsmith.state.json"))
}

func TestNewLocalBackend(t *testing.T) {
	path := "/tmp/test-state.json"
	b := NewLocalBackend(path)

	if b.Path != path {
		t.Errorf("Path = %q, want %q", b.Path, path)
	}

	defaults := DefaultLockConfig()
	if b.lockConfig.LockTimeout != defaults.LockTimeout {
		t.Errorf("LockTimeout = %v, want %v", b.lockConfig.LockTimeout, defaults.LockTimeout)
	}
	if b.lockConfig.StaleThreshold != defaults.StaleThreshold {
		t.Errorf("StaleThreshold = %v, want %v", b.lockConfig.StaleThreshold, defaults.StaleThreshold)
	}
}

func TestWithLockConfig(t *testing.T) {
	t.Run("set only LockTimeout", func(t *testing.T) {
		b := NewLocalBackend("/tmp/test.json")
		originalStale := b.lockConfig.StaleThreshold

		b.WithLockConfig(LockConfig{LockTimeout: 10 * time.Second})

		if b.lockConfig.LockTimeout != 10*time.Second {
			t.Errorf("LockTimeout = %v, want %v", b.lockConfig.LockTimeout, 10*time.Second)
		}
		if b.lockConfig.StaleThreshold != originalStale {
			t.Errorf("StaleThreshold changed to %v, want %v", b.lockConfig.StaleThreshold, originalStale)
		}
	})

	t.Run("set only StaleThreshold", func(t *testing.T) {
		b := NewLocalBackend("/tmp/test.json")
		originalTimeout := b.lockConfig.LockTimeout

		b.WithLockConfig(LockConfig{StaleThreshold: 10 * time.Minute})

		if b.lockConfig.StaleThreshold != 10*time.Minute {
			t.Errorf("StaleThreshold = %v, want %v", b.lockConfig.StaleThreshold, 10*time.Minute)
		}
		if b.lockConfig.LockTimeout != originalTimeout {
			t.Errorf("LockTimeout changed to %v, want %v", b.lockConfig.LockTimeout, originalTimeout)
		}
	})

	t.Run("returns same backend for chaining", func(t *testing.T) {
		b := NewLocalBackend("/tmp/test.json")
		got := b.WithLockConfig(LockConfig{LockTimeout: 5 * time.Second})
		if got != b {
			t.Error("WithLockConfig did not return the same *LocalBackend")
		}
	})
}

func TestDefaultLockConfig(t *testing.T) {
	cfg := DefaultLockConfig()

	if cfg.LockTimeout != 30*time.Second {
		t.Errorf("LockTimeout = %v, want %v", cfg.LockTimeout, 30*time.Second)
	}
	if cfg.StaleThreshold != 5*time.Minute {
		t.Errorf("StaleThreshold = %v, want %v", cfg.StaleThreshold, 5*time.Minute)
	}
}

func TestSaveAndLoad(t *testing.T) {
	b := newTestBackend(t)

	now := time.Now().Truncate(time.Millisecond)
	entries := []Entry{
		{Path: "web/pom.xml", Hash: "aaa", RecipeHash: "r1", Status: StatusApplied, LastApplied: now},
		{Path: "api/pom.xml", Hash: "bbb", RecipeHash: "r1", Status: StatusFailed, LastApplied: now, Error: "plugin missing"},
		{Path: "pom.xml", Hash: "ccc", RecipeHash: "r1", Status: StatusApplied, LastApplied: now},
	}

	if err := b.Save(entries); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := b.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("Load returned %d entries, want 3", len(loaded))
	}

	// Entries are saved sorted by path.
	wantOrder := []string{"api/pom.xml", "pom.xml", "web/pom.xml"}
	for i, want := range wantOrder {
		if loaded[i].Path != want {
			t.Errorf("loaded[%d].Path = %q, want %q", i, loaded[i].Path, want)
		}
	}

	for _, e := range loaded {
		if e.Hash == "" || e.RecipeHash == "" {
			t.Errorf("entry %q: hashes should round-trip", e.Path)
		}
	}
}

func TestSaveWritesVersionedFile(t *testing.T) {
	b := newTestBackend(t)
	if err := b.Save([]Entry{{Path: "pom.xml", Hash: "h", Status: StatusApplied}}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(b.Path)
	if err != nil {
		t.Fatalf("read state file: %v", err)
	}
	var sf stateFile
	if err := json.Unmarshal(data, &sf); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if sf.Version != "1.0" {
		t.Errorf("Version = %q, want %q", sf.Version, "1.0")
	}
}

func TestLoadMissingFile(t *testing.T) {
	b := newTestBackend(t)

	entries, err := b.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if entries != nil {
		t.Errorf("Load returned %v, want nil", entries)
	}
}

func TestLoadCorrupted(t *testing.T) {
	b := newTestBackend(t)
	if err := os.WriteFile(b.Path, []byte("{not valid json!!!"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := b.Load(); err == nil {
		t.Fatal("Load of corrupted state file should fail")
	}
}

func TestGet(t *testing.T) {
	b := newTestBackend(t)

	now := time.Now()
	entries := []Entry{
		{Path: "a/pom.xml", Hash: "h1", Status: StatusApplied, LastApplied: now},
		{Path: "b/pom.xml", Hash: "h2", Status: StatusFailed, LastApplied: now},
	}
	if err := b.Save(entries); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := b.Get("b/pom.xml")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Hash != "h2" || got.Status != StatusFailed {
		t.Errorf("Get(b/pom.xml) = %+v", got)
	}

	got, err = b.Get("missing/pom.xml")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get(missing) = %+v, want nil", got)
	}
}

func TestList(t *testing.T) {
	b := newTestBackend(t)

	now := time.Now()
	entries := []Entry{
		{Path: "a/pom.xml", Hash: "h1", Status: StatusApplied, LastApplied: now},
		{Path: "b/pom.xml", Hash: "h2", Status: StatusApplied, LastApplied: now},
		{Path: "c/pom.xml", Hash: "h3", Status: StatusFailed, LastApplied: now, Error: "broken"},
	}
	if err := b.Save(entries); err != nil {
		t.Fatalf("Save: %v", err)
	}

	all, err := b.List(nil)
	if err != nil {
		t.Fatalf("List(nil): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List(nil) returned %d entries, want 3", len(all))
	}

	applied := StatusApplied
	appliedEntries, err := b.List(&applied)
	if err != nil {
		t.Fatalf("List(applied): %v", err)
	}
	if len(appliedEntries) != 2 {
		t.Errorf("List(applied) returned %d entries, want 2", len(appliedEntries))
	}

	failed := StatusFailed
	failedEntries, err := b.List(&failed)
	if err != nil {
		t.Fatalf("List(failed): %v", err)
	}
	if len(failedEntries) != 1 || failedEntries[0].Path != "c/pom.xml" {
		t.Errorf("List(failed) = %+v", failedEntries)
	}
}

func TestLockUnlock(t *testing.T) {
	b := newTestBackend(t)

	if err := b.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}

	lockPath := b.Path + ".lock"
	data, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("lock file should exist while held: %v", err)
	}
	var info lockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		t.Fatalf("lock file is not valid JSON: %v", err)
	}
	if info.PID != os.Getpid() {
		t.Errorf("lock PID = %d, want %d", info.PID, os.Getpid())
	}

	if err := b.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Errorf("lock file should be removed after Unlock, got err=%v", err)
	}
}

func TestLockContention(t *testing.T) {
	b1 := newTestBackend(t)
	if err := b1.Lock(); err != nil {
		t.Fatalf("b1.Lock: %v", err)
	}
	defer func() { _ = b1.Unlock() }()

	b2 := NewLocalBackend(b1.Path).WithLockConfig(LockConfig{
		LockTimeout: 200 * time.Millisecond,
	})
	err := b2.Lock()
	if err == nil {
		_ = b2.Unlock()
		t.Fatal("second Lock should time out while the first is held")
	}
	if !strings.Contains(err.Error(), "timed out waiting for state lock") {
		t.Errorf("error = %q, want timeout message", err)
	}
}

func TestLockBreaksStaleLock(t *testing.T) {
	b := newTestBackend(t)
	lockPath := b.Path + ".lock"

	// A leftover lock from a crashed run, older than the threshold.
	stale := lockInfo{PID: 999999999, AcquiredAt: time.Now().Add(-time.Hour)}
	data, _ := json.Marshal(stale)
	if err := os.WriteFile(lockPath, data, 0644); err != nil {
		t.Fatal(err)
	}

	b.WithLockConfig(LockConfig{LockTimeout: 2 * time.Second})
	if err := b.Lock(); err != nil {
		t.Fatalf("Lock should break the stale lock: %v", err)
	}
	defer func() { _ = b.Unlock() }()

	held, err := os.ReadFile(lockPath)
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	var info lockInfo
	if err := json.Unmarshal(held, &info); err != nil {
		t.Fatal(err)
	}
	if info.PID != os.Getpid() {
		t.Errorf("lock PID = %d, want %d", info.PID, os.Getpid())
	}
}

func TestUnlockWithoutLock(t *testing.T) {
	b := newTestBackend(t)
	if err := b.Unlock(); err != nil {
		t.Errorf("Unlock without a held lock should be a no-op, got %v", err)
	}
}

func TestHashBytes(t *testing.T) {
	h1 := HashBytes([]byte("<project/>"))
	h2 := HashBytes([]byte("<project/>"))
	h3 := HashBytes([]byte("<project></project>"))

	if h1 != h2 {
		t.Error("identical content should hash identically")
	}
	if h1 == h3 {
		t.Error("different content should hash differently")
	}
	if len(h1) != 64 {
		t.Errorf("len(hash) = %d, want 64 hex chars", len(h1))
	}
}
