package history

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "history.json")

	s, err := OpenFileStore(path, 2)
	require.NoError(t, err)
	assert.True(t, s.Empty())

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Add(ctx, Record{ID: id, Kind: KindDeposit, Status: StatusSuccess, Timestamp: now}))
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := OpenFileStore(path, 2)
	require.NoError(t, err)
	list, err := reopened.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)

	got, err := reopened.Get(ctx, "b")
	require.NoError(t, err)
	assert.True(t, got.Timestamp.Equal(now))

	_, err = reopened.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFileStore(path, 10)
	assert.Error(t, err)
}

func TestFileStoreConcurrentAddsAllPersist(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")

	const n = 200
	s, err := OpenFileStore(path, n)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- s.Add(ctx, Record{ID: "r" + strconv.Itoa(i), Kind: KindPay, Status: StatusSuccess})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	inMemory, err := s.List(ctx, 0)
	require.NoError(t, err)

	reopened, err := OpenFileStore(path, n)
	require.NoError(t, err)
	onDisk, err := reopened.List(ctx, 0)
	require.NoError(t, err)

	require.Len(t, onDisk, n)
	for i := range inMemory {
		assert.Equal(t, inMemory[i].ID, onDisk[i].ID)
	}
}
