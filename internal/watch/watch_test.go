package watch_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leighmacdonald/vgr-decode/internal/watch"
	"github.com/stretchr/testify/require"
)

func TestWatchSettles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	name := uuid.NewString() + "-" + uuid.NewString()
	for idx := range 3 {
		path := filepath.Join(dir, fmt.Sprintf("%s.%d.vgr", name, idx))
		require.NoError(t, os.WriteFile(path, []byte{0x00}, 0o600))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	completed := make(chan string, 1)
	go func() {
		_ = watch.Watch(ctx, dir, 100*time.Millisecond, completed)
	}()

	select {
	case got := <-completed:
		require.Equal(t, filepath.Join(dir, name), got)
	case <-ctx.Done():
		t.Fatal("watch never reported the settled replay")
	}
}

func TestWatchSubdirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	nested := filepath.Join(dir, "account-a")
	require.NoError(t, os.MkdirAll(nested, 0o750))

	name := uuid.NewString() + "-" + uuid.NewString()
	path := filepath.Join(nested, name+".0.vgr")
	require.NoError(t, os.WriteFile(path, []byte{0x00}, 0o600))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	completed := make(chan string, 1)
	go func() {
		_ = watch.Watch(ctx, dir, 100*time.Millisecond, completed)
	}()

	select {
	case got := <-completed:
		require.Equal(t, filepath.Join(nested, name), got)
	case <-ctx.Done():
		t.Fatal("watch never reported the nested replay")
	}
}

func TestWatchMissingDir(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := watch.Watch(ctx, filepath.Join(t.TempDir(), "nope"), time.Second, make(chan string))
	require.ErrorIs(t, err, watch.ErrWatch)
}
