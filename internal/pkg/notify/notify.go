package notify

import (
	"context"
	"log"
	"time"
)

// Message 一封待发送的通知
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Notifier 通知发送方，实现需要遵守 ctx 的超时
type Notifier interface {
	Notify(ctx context.Context, msg *Message) error
}

// Func 函数适配为 Notifier
type Func func(ctx context.Context, msg *Message) error

func (f Func) Notify(ctx context.Context, msg *Message) error {
	return f(ctx, msg)
}

// Nop 丢弃所有消息
type Nop struct{}

func (Nop) Notify(context.Context, *Message) error {
	return nil
}

// Dispatcher 在提交之后发送通知，超时后放弃
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
}

func NewDispatcher(notifier Notifier, timeout time.Duration) *Dispatcher {
	if notifier == nil {
		notifier = Nop{}
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{notifier: notifier, timeout: timeout}
}

// Send 同步发送并返回错误，调用方的取消不会中断发送
func (d *Dispatcher) Send(ctx context.Context, msg *Message) error {
	if msg == nil || msg.To == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- d.notifier.Notify(ctx, msg)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Fire 尽力发送，失败只记录日志
func (d *Dispatcher) Fire(ctx context.Context, msg *Message) {
	if err := d.Send(ctx, msg); err != nil {
		log.Printf("[notify] failed to send %q to %s: %v", msg.Subject, msg.To, err)
	}
}
