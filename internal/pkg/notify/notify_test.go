package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/members_server/internal/pkg/queue"
)

func TestDispatcher_SendReturnsNotifierError(t *testing.T) {
	boom := errors.New("smtp down")
	d := NewDispatcher(Func(func(ctx context.Context, msg *Message) error {
		return boom
	}), time.Second)

	err := d.Send(context.Background(), &Message{To: "a@example.com", Subject: "s"})
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_SendTimesOut(t *testing.T) {
	d := NewDispatcher(Func(func(ctx context.Context, msg *Message) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	}), 20*time.Millisecond)

	start := time.Now()
	err := d.Send(context.Background(), &Message{To: "a@example.com"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestDispatcher_IgnoresCallerCancel(t *testing.T) {
	var got *Message
	d := NewDispatcher(Func(func(ctx context.Context, msg *Message) error {
		got = msg
		return ctx.Err()
	}), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, d.Send(ctx, &Message{To: "a@example.com"}))
	assert.NotNil(t, got)
}

func TestDispatcher_SkipsEmptyRecipient(t *testing.T) {
	called := false
	d := NewDispatcher(Func(func(ctx context.Context, msg *Message) error {
		called = true
		return nil
	}), time.Second)

	require.NoError(t, d.Send(context.Background(), &Message{}))
	assert.False(t, called)
}

func TestDispatcher_FireSwallowsError(t *testing.T) {
	d := NewDispatcher(Func(func(ctx context.Context, msg *Message) error {
		return errors.New("boom")
	}), time.Second)

	assert.NotPanics(t, func() {
		d.Fire(context.Background(), &Message{To: "a@example.com"})
	})
}

func TestBreaker_OpensAfterFailures(t *testing.T) {
	calls := 0
	next := Func(func(ctx context.Context, msg *Message) error {
		calls++
		return errors.New("smtp down")
	})
	b := NewBreaker("test", next, BreakerConfig{MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute, FailureThreshold: 2})

	ctx := context.Background()
	msg := &Message{To: "a@example.com"}

	assert.Error(t, b.Notify(ctx, msg))
	assert.Error(t, b.Notify(ctx, msg))
	assert.Equal(t, gobreaker.StateOpen, b.State())

	assert.ErrorIs(t, b.Notify(ctx, msg), ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestQueueNotifier_Notify(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	q := queue.NewQueue(client, "notifications")
	n := NewQueueNotifier(q)

	ctx := context.Background()
	require.NoError(t, n.Notify(ctx, &Message{To: "a@example.com", Subject: "Hi", HTML: "<p>x</p>"}))

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a@example.com", got.To)
	assert.Equal(t, "Hi", got.Subject)
	assert.False(t, got.QueuedAt.IsZero())
}
