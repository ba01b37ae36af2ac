package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qs3c/members_server/internal/pkg/notify"
	"github.com/qs3c/members_server/internal/pkg/queue"
)

func setupTestQueue(t *testing.T) *queue.Queue {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return queue.NewQueue(client, "test_notifications")
}

func testMessage() *queue.NotificationMessage {
	return &queue.NotificationMessage{
		To:       "member@example.com",
		Subject:  "Subscription Expiring Soon",
		HTML:     "<p>Hello</p>",
		QueuedAt: time.Date(2024, 12, 22, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewProcessor_Defaults(t *testing.T) {
	p := NewProcessor(nil, notify.Nop{}, 0, 0)

	assert.Equal(t, 1, p.maxAttempts)
	assert.Equal(t, 10*time.Second, p.timeout)
}

func TestProcessor_Process_Success(t *testing.T) {
	q := setupTestQueue(t)

	var got *notify.Message
	p := NewProcessor(q, notify.Func(func(_ context.Context, msg *notify.Message) error {
		got = msg
		return nil
	}), 3, time.Second)

	require.NoError(t, p.Process(context.Background(), testMessage()))
	require.NotNil(t, got)
	assert.Equal(t, "member@example.com", got.To)
	assert.Equal(t, "Subscription Expiring Soon", got.Subject)

	n, err := q.Length(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestProcessor_Process_RequeuesUntilMaxAttempts(t *testing.T) {
	q := setupTestQueue(t)
	ctx := context.Background()
	failing := notify.Func(func(context.Context, *notify.Message) error {
		return errors.New("smtp unavailable")
	})
	p := NewProcessor(q, failing, 2, time.Second)

	msg := testMessage()
	err := p.Process(ctx, msg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requeued")

	requeued, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, requeued)
	assert.Equal(t, 1, requeued.Attempts)

	err = p.Process(ctx, requeued)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving up")

	n, err := q.Length(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestProcessor_Run(t *testing.T) {
	q := setupTestQueue(t)

	var sent atomic.Int32
	p := NewProcessor(q, notify.Func(func(context.Context, *notify.Message) error {
		sent.Add(1)
		return nil
	}), 3, time.Second)

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Push(context.Background(), testMessage()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.Run(ctx, 2)
	}()

	assert.Eventually(t, func() bool { return sent.Load() == 3 }, 3*time.Second, 20*time.Millisecond)

	cancel()
	wg.Wait()
}
