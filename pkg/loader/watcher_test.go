package loader

import (
	"context"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"ruleworks/arbiter/pkg/engine"
)

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	dir := t.TempDir()
	eng := engine.NewEngine(nil)
	watcher := NewWatcher(NewDirectory(dir, eng, nil), 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Watch(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() = %v, want nil on cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Watch() did not return after context cancellation")
	}
}

func TestWatcher_ApplyReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.yaml", "name: v1\nrules: []\n")

	eng := engine.NewEngine(nil)
	directory := NewDirectory(dir, eng, nil)
	watcher := NewWatcher(directory, 0, nil)

	watcher.apply(path, fsnotify.Write)
	if names := eng.RegisteredNames(); len(names) != 1 || names[0] != "v1" {
		t.Fatalf("RegisteredNames() = %v, want [v1]", names)
	}

	writeFile(t, dir, "doc.yaml", "name: v2\nrules: []\n")
	watcher.apply(path, fsnotify.Write)
	if names := eng.RegisteredNames(); len(names) != 1 || names[0] != "v2" {
		t.Errorf("RegisteredNames() = %v, want [v2]", names)
	}
}

func TestWatcher_ApplyRemove(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.yaml", "name: doomed\nrules: []\n")

	eng := engine.NewEngine(nil)
	directory := NewDirectory(dir, eng, nil)
	if err := directory.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	watcher := NewWatcher(directory, 0, nil)
	watcher.apply(path, fsnotify.Remove)
	if len(eng.RegisteredNames()) != 0 {
		t.Error("rule set still registered after remove event")
	}
}

func TestWatcher_ApplyKeepsPreviousOnBrokenReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "doc.yaml", "name: stable\nrules: []\n")

	eng := engine.NewEngine(nil)
	directory := NewDirectory(dir, eng, nil)
	if err := directory.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	writeFile(t, dir, "doc.yaml", "name: [broken")
	watcher := NewWatcher(directory, 0, nil)
	watcher.apply(path, fsnotify.Write)

	if names := eng.RegisteredNames(); len(names) != 1 || names[0] != "stable" {
		t.Errorf("RegisteredNames() = %v, want [stable] (previous registration kept)", names)
	}
}
