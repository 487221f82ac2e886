package scenefile

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.lua")
	if err := os.WriteFile(path, []byte("paint.scene = {}"), 0o644); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int32
	w, err := NewWatcher(path, 50*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	// Several writes inside the debounce window reload once.
	for i := range 3 {
		body := []byte("paint.scene = { w = " + string(rune('1'+i)) + " }")
		if err := os.WriteFile(path, body, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	if !waitFor(t, 2*time.Second, func() bool { return reloads.Load() >= 1 }) {
		t.Fatal("no reload after writing the scene file")
	}
	time.Sleep(150 * time.Millisecond)
	if n := reloads.Load(); n != 1 {
		t.Errorf("reloads = %d, want 1", n)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.lua")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var reloads atomic.Int32
	w, err := NewWatcher(path, 20*time.Millisecond, func() error {
		reloads.Add(1)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "other.lua"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := reloads.Load(); n != 0 {
		t.Errorf("reloads = %d, want 0", n)
	}
}

func TestWatcher_ReportsReloadErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.lua")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	errReload := errors.New("reload failed")
	var reported atomic.Value
	w, err := NewWatcher(path, 20*time.Millisecond,
		func() error { return errReload },
		func(err error) { reported.Store(err) },
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Start()
	defer w.Stop()

	if err := os.WriteFile(path, []byte("changed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 2*time.Second, func() bool { return reported.Load() != nil }) {
		t.Fatal("reload error not reported")
	}
	if got := reported.Load().(error); !errors.Is(got, errReload) {
		t.Errorf("reported %v, want %v", got, errReload)
	}
}

func TestWatcher_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.lua")
	w, err := NewWatcher(path, 0, nil, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	if w.debounce != DefaultWatchDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultWatchDebounce)
	}
	w.Start()
	w.Start()
	w.Stop()
	w.Stop()
	w.Start()
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.lua")
	w, err := NewWatcher(path, 0, nil, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Stop()
}

func TestNewWatcher_MissingDir(t *testing.T) {
	if _, err := NewWatcher(filepath.Join(t.TempDir(), "nope", "scene.lua"), 0, nil, nil); err == nil {
		t.Error("NewWatcher() error = nil for a missing directory")
	}
}
