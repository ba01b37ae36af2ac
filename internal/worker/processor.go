package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/qs3c/members_server/internal/pkg/notify"
	"github.com/qs3c/members_server/internal/pkg/queue"
)

const popTimeout = 5 * time.Second

// Processor 消费通知队列并实际发送
type Processor struct {
	queue       *queue.Queue
	notifier    notify.Notifier
	maxAttempts int
	timeout     time.Duration
}

// NewProcessor 创建通知处理器
func NewProcessor(q *queue.Queue, notifier notify.Notifier, maxAttempts int, timeout time.Duration) *Processor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Processor{
		queue:       q,
		notifier:    notifier,
		maxAttempts: maxAttempts,
		timeout:     timeout,
	}
}

// Process 发送一条通知；失败时重新入队，超过次数上限后丢弃
func (p *Processor) Process(ctx context.Context, msg *queue.NotificationMessage) error {
	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.notifier.Notify(sendCtx, &notify.Message{
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	cancel()
	if err == nil {
		return nil
	}

	msg.Attempts++
	if msg.Attempts >= p.maxAttempts {
		return fmt.Errorf("giving up on %q to %s after %d attempts: %w", msg.Subject, msg.To, msg.Attempts, err)
	}

	if pushErr := p.queue.Push(ctx, msg); pushErr != nil {
		return fmt.Errorf("failed to requeue message: %w", pushErr)
	}
	return fmt.Errorf("send failed, requeued (attempt %d): %w", msg.Attempts, err)
}

// Run 启动 workers 个消费协程，ctx 取消后等待全部退出
func (p *Processor) Run(ctx context.Context, workers int) {
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.loop(ctx, workerID)
		}(i)
	}
	wg.Wait()
}

func (p *Processor) loop(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
		}

		msg, err := p.queue.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Worker %d: failed to pop notification: %v", workerID, err)
			continue
		}
		if msg == nil {
			continue // 超时，继续等待
		}

		if err := p.Process(ctx, msg); err != nil {
			log.Printf("Worker %d: %v", workerID, err)
			continue
		}
		log.Printf("Worker %d: sent %q to %s", workerID, msg.Subject, msg.To)
	}
}
