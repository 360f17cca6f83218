package history

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestStatusTexts(t *testing.T) {
	assert.Equal(t, "Transaction Successful", Record{Status: StatusSuccess}.StatusText())
	assert.Equal(t, "Transaction Pending", Record{Status: StatusPending}.StatusText())
	assert.Equal(t, "Transaction Failed", Record{Status: StatusFailed}.StatusText())
	assert.Equal(t, "completed", Record{Status: StatusSuccess}.BadgeStatus())
	assert.Equal(t, "pending", Record{Status: StatusPending}.BadgeStatus())
}

func TestRelativeTime(t *testing.T) {
	assert.Equal(t, "Just now", RelativeTime(now.Add(-59*time.Minute), now))
	assert.Equal(t, "1h ago", RelativeTime(now.Add(-time.Hour), now))
	assert.Equal(t, "23h ago", RelativeTime(now.Add(-23*time.Hour), now))
	assert.Equal(t, "1d ago", RelativeTime(now.Add(-24*time.Hour), now))
	assert.Equal(t, "3d ago", RelativeTime(now.Add(-80*time.Hour), now))
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind(" Withdraw ")
	assert.True(t, ok)
	assert.Equal(t, KindWithdraw, k)
	_, ok = ParseKind("refund")
	assert.False(t, ok)
}

func TestMemoryStoreSeedAndViews(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(10)
	require.NoError(t, Seed(ctx, s, now))

	list, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"2", "1", "3"}, []string{list[0].ID, list[1].ID, list[2].ID})

	items := NewItems(list, now)
	assert.Equal(t, "Withdrew 50.00 RLUSD", items[0].Summary)
	assert.Equal(t, "Just now", items[0].Age)
	assert.Equal(t, "Pending", items[0].Badge)
	assert.Equal(t, "1h ago", items[1].Age)
	assert.Equal(t, "Completed", items[1].Badge)
	assert.Equal(t, "15,000 • M-Pesa • +254712345678", items[1].Detail)
	assert.Equal(t, "1d ago", items[2].Age)
	assert.Equal(t, "Sent 25.00 RLUSD", items[2].Summary)

	r, err := s.Get(ctx, "3")
	require.NoError(t, err)
	receipt := NewReceipt(r)
	assert.Equal(t, "Transaction Successful", receipt.StatusText)
	assert.Equal(t, "25.00 RLUSD", receipt.Title)

	_, err = s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreIsBounded(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(2)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Add(ctx, Record{ID: fmt.Sprint(i)}))
	}
	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "4", list[0].ID)
	assert.Equal(t, "3", list[1].ID)

	assert.Error(t, s.Add(ctx, Record{}))
}

type fakeList struct {
	mu    sync.Mutex
	items []string
}

func (f *fakeList) LPush(_ context.Context, _ string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range values {
		f.items = append([]string{v.(string)}, f.items...)
	}
	return redis.NewIntResult(int64(len(f.items)), nil)
}

func (f *fakeList) LTrim(_ context.Context, _ string, start, stop int64) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stop+1 < int64(len(f.items)) {
		f.items = f.items[start : stop+1]
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeList) LRange(_ context.Context, _ string, start, stop int64) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	end := stop + 1
	if end > int64(len(f.items)) {
		end = int64(len(f.items))
	}
	if start >= end {
		return redis.NewStringSliceResult(nil, nil)
	}
	return redis.NewStringSliceResult(append([]string(nil), f.items[start:end]...), nil)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	list := &fakeList{}
	s := NewRedisStore(list, 3)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Add(ctx, Record{ID: fmt.Sprint(i), Kind: KindPay, Status: StatusSuccess, Timestamp: now}))
	}
	assert.Len(t, list.items, 3)

	got, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "4", got[0].ID)
	assert.Equal(t, KindPay, got[0].Kind)
	assert.True(t, got[0].Timestamp.Equal(now))

	r, err := s.Get(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "2", r.ID)

	_, err = s.Get(ctx, "0")
	assert.ErrorIs(t, err, ErrNotFound)
}
