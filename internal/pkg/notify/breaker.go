package notify

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrCircuitOpen 连续失败后熔断，暂停发送
var ErrCircuitOpen = errors.New("notification circuit open")

// BreakerConfig 熔断参数
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig 连续 5 次失败后熔断 30 秒
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Breaker 给下游 Notifier 加熔断，SMTP 不可用时快速失败
type Breaker struct {
	next    Notifier
	breaker *gobreaker.CircuitBreaker[any]
}

func NewBreaker(name string, next Notifier, cfg BreakerConfig) *Breaker {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[notify] circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
	}

	return &Breaker{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *Breaker) Notify(ctx context.Context, msg *Message) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.next.Notify(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrCircuitOpen
	}
	return err
}

// State 当前熔断状态
func (b *Breaker) State() gobreaker.State {
	return b.breaker.State()
}
