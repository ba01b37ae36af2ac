package notify

import (
	"context"
	"time"

	"github.com/qs3c/members_server/internal/pkg/queue"
)

// QueueNotifier 把通知写入 redis 队列，由 worker 进程实际发送
type QueueNotifier struct {
	q *queue.Queue
}

func NewQueueNotifier(q *queue.Queue) *QueueNotifier {
	return &QueueNotifier{q: q}
}

func (n *QueueNotifier) Notify(ctx context.Context, msg *Message) error {
	return n.q.Push(ctx, &queue.NotificationMessage{
		To:       msg.To,
		Subject:  msg.Subject,
		HTML:     msg.HTML,
		QueuedAt: time.Now().UTC(),
	})
}
