package broker

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gobwas/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "A.php"), "<?php\nclass A {}\n")

	results := make(chan Result, 8)
	w, err := NewWatcher(dir, func(r Result) { results <- r }, WithExclude(glob.MustCompile("cache")))
	require.NoError(t, err)
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	initial := <-results
	require.NoError(t, initial.Err)
	assert.Empty(t, initial.Changed)
	assert.True(t, initial.Broker.HasClass("A"))
	assert.False(t, initial.Broker.HasClass("B"))

	path := filepath.Join(dir, "B.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php\nclass B extends A {}\n"), 0o644))

	select {
	case r := <-results:
		require.NoError(t, r.Err)
		assert.Contains(t, r.Changed, path)
		assert.True(t, r.Broker.HasClass("B"))
		assert.True(t, r.Broker.HasClass("A"))
	case <-time.After(5 * time.Second):
		t.Fatal("no rebuild after writing B.php")
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	results := make(chan Result, 8)
	w, err := NewWatcher(dir, func(r Result) { results <- r })
	require.NoError(t, err)
	w.SetDebounce(10 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()
	<-results

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	select {
	case r := <-results:
		t.Fatalf("unexpected rebuild for %v", r.Changed)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewWatcherRequiresCallback(t *testing.T) {
	_, err := NewWatcher(t.TempDir(), nil)
	assert.ErrorIs(t, err, os.ErrInvalid)
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), func(Result) {})
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}

func TestWatcherSerializesRebuilds(t *testing.T) {
	dir := t.TempDir()
	var active, peak int32
	results := make(chan Result, 32)
	w, err := NewWatcher(dir, func(r Result) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		results <- r
	})
	require.NoError(t, err)
	w.SetDebounce(5 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	<-results

	for _, name := range []string{"A", "B", "C"} {
		writeFile(t, filepath.Join(dir, name+".php"), "<?php\nclass "+name+" {}\n")
		time.Sleep(15 * time.Millisecond)
	}

	deadline := time.After(5 * time.Second)
	for done := false; !done; {
		select {
		case r := <-results:
			done = r.Broker.HasClass("C")
		case <-deadline:
			t.Fatal("no rebuild saw C.php")
		}
	}
	w.Stop()
	close(results)

	for r := range results {
		assert.True(t, r.Broker.HasClass("C"), "an older rebuild was reported after a newer one")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&peak))
}

func TestWatcherStopDropsPendingRebuild(t *testing.T) {
	dir := t.TempDir()
	results := make(chan Result, 8)
	w, err := NewWatcher(dir, func(r Result) { results <- r })
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)
	require.NoError(t, w.Start(context.Background()))
	<-results

	writeFile(t, filepath.Join(dir, "A.php"), "<?php\nclass A {}\n")
	w.Stop()

	select {
	case r := <-results:
		t.Fatalf("rebuild after Stop for %v", r.Changed)
	case <-time.After(200 * time.Millisecond):
	}
}
