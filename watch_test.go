package main

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsProgramChange(t *testing.T) {
	target := filepath.Join(string(filepath.Separator), "work", "prog.tc")

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"write", fsnotify.Event{Name: target, Op: fsnotify.Write}, true},
		{"create", fsnotify.Event{Name: target, Op: fsnotify.Create}, true},
		{"write and chmod", fsnotify.Event{Name: target, Op: fsnotify.Write | fsnotify.Chmod}, true},
		{"chmod only", fsnotify.Event{Name: target, Op: fsnotify.Chmod}, false},
		{"removed", fsnotify.Event{Name: target, Op: fsnotify.Remove}, false},
		{"other file", fsnotify.Event{Name: filepath.Join(filepath.Dir(target), "other.tc"), Op: fsnotify.Write}, false},
		{"unclean name", fsnotify.Event{Name: filepath.Dir(target) + "/./prog.tc", Op: fsnotify.Write}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isProgramChange(tt.event, target))
		})
	}
}

func TestProgramWatcher_RunsAfterChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.tc")
	require.NoError(t, os.WriteFile(path, []byte("T:one\n"), 0o644))

	w, err := newProgramWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Skipf("file watching unavailable: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- w.Loop(ctx, func() { runs.Add(1) })
	}()

	// unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("T:two\n"), 0o644))

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch loop did not stop")
	}
}

func TestProgramWatcher_MissingDirectory(t *testing.T) {
	_, err := newProgramWatcher(filepath.Join(t.TempDir(), "gone", "prog.tc"), 0, nil)
	assert.Error(t, err)
}
