package redis

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kirinyoku/tixcore/internal/clock"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func newClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func TestGetOrSetJSON_LoadsOnceThenHits(t *testing.T) {
	mr, rdb := newClient(t)
	c := New(rdb, time.Minute)
	ctx := context.Background()

	var loads atomic.Int32
	loader := func(context.Context) (summary, error) {
		loads.Add(1)
		return summary{ID: 7, Name: "Gala"}, nil
	}

	got, err := GetOrSetJSON(ctx, c, KeyEventSummary(7), 0, loader)
	require.NoError(t, err)
	assert.Equal(t, summary{ID: 7, Name: "Gala"}, got)

	got, err = GetOrSetJSON(ctx, c, KeyEventSummary(7), 0, loader)
	require.NoError(t, err)
	assert.Equal(t, "Gala", got.Name)
	assert.Equal(t, int32(1), loads.Load())

	assert.True(t, mr.Exists(KeyEventSummary(7)))
	assert.Equal(t, time.Minute, mr.TTL(KeyEventSummary(7)))
}

func TestGetOrSetJSON_DoesNotCacheErrors(t *testing.T) {
	mr, rdb := newClient(t)
	c := New(rdb, time.Minute)
	boom := errors.New("boom")

	_, err := GetOrSetJSON(context.Background(), c, KeyEventSummary(1), time.Second,
		func(context.Context) (summary, error) { return summary{}, boom })

	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists(KeyEventSummary(1)))
}

func TestInvalidate(t *testing.T) {
	mr, rdb := newClient(t)
	c := New(rdb, time.Minute)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, c, KeyEventSummary(3), summary{ID: 3}, 0))
	require.NoError(t, SetJSON(ctx, c, KeyEventSections(3), []summary{{ID: 1}}, 0))

	require.NoError(t, c.InvalidateSections(ctx, 3))
	assert.True(t, mr.Exists(KeyEventSummary(3)))
	assert.False(t, mr.Exists(KeyEventSections(3)))

	require.NoError(t, c.InvalidateEvent(ctx, 3))
	assert.False(t, mr.Exists(KeyEventSummary(3)))
}

func TestIdempotencyStore(t *testing.T) {
	_, rdb := newClient(t)
	s := NewIdempotencyStore(rdb, time.Hour)
	ctx := context.Background()
	key := KeyIdemCreate("events", "abc")

	ok, err := s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AcquireLock(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	locked, err := s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.True(t, locked)

	_, _, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SaveResult(ctx, key, 201, `{"id":1,"note":"a:b"}`))

	status, payload, found, err := s.GetResult(ctx, key)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 201, status)
	assert.JSONEq(t, `{"id":1,"note":"a:b"}`, payload)

	require.NoError(t, s.Release(ctx, key))
	locked, err = s.IsLocked(ctx, key)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestSlidingWindowLimiter(t *testing.T) {
	_, rdb := newClient(t)
	clk := clock.Fake(time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC))
	l := NewSlidingWindowLimiter(rdb, clk, "mut", 2, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 2; i++ {
		ok, cur, _, err := l.Allow(ctx, "ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(i), cur)
	}

	ok, _, retry, err := l.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, retry)

	// other clients have their own window
	ok, _, _, err = l.Allow(ctx, "ip:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(61 * time.Second)
	ok, cur, _, err := l.Allow(ctx, "ip:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(1), cur)
	assert.Equal(t, 2, l.Limit())
}

func TestEventsPubSub(t *testing.T) {
	_, rdb := newClient(t)
	clk := clock.Fake(time.Unix(1_700_000_000, 0))
	ps := NewEventsPubSub(rdb, clk)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan struct{})
	got := make(chan ChangeMessage, 2)
	done := make(chan error, 1)
	go func() {
		done <- ps.Subscribe(ctx, ready, func(_ context.Context, msg ChangeMessage) { got <- msg })
	}()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("subscription not ready")
	}

	require.NoError(t, ps.PublishEventChanged(ctx, 42))
	require.NoError(t, ps.PublishSectionChanged(ctx, 42, 9))

	for _, want := range []ChangeMessage{
		{Type: ChangeEvent, EventID: 42, TsUnix: 1_700_000_000},
		{Type: ChangeSection, EventID: 42, SectionID: 9, TsUnix: 1_700_000_000},
	} {
		select {
		case msg := <-got:
			assert.Equal(t, want, msg)
		case <-time.After(2 * time.Second):
			t.Fatalf("no message for %+v", want)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber did not stop")
	}
}
