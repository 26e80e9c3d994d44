package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisNotifier fans enqueue announcements out to every worker instance
// through a pub/sub channel. Subscribers that miss a message fall back to
// their poll interval, so delivery is best-effort on purpose.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	sub     *redis.PubSub
	wake    chan struct{}
	logger  *log.Logger
}

func NewRedisNotifier(ctx context.Context, cfg RedisConfig, logger *log.Logger) (*RedisNotifier, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	if cfg.Channel == "" {
		cfg.Channel = "index_jobs_wake"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	notifier := &RedisNotifier{
		client:  client,
		channel: cfg.Channel,
		sub:     client.Subscribe(ctx, cfg.Channel),
		wake:    make(chan struct{}, 1),
		logger:  logger,
	}
	go notifier.drain(ctx)
	return notifier, nil
}

func (n *RedisNotifier) Close() error {
	_ = n.sub.Close()
	return n.client.Close()
}

func (n *RedisNotifier) Notify(ctx context.Context, projectID string, count int) error {
	payload := fmt.Sprintf("%s:%d", projectID, count)
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish wake notification: %w", err)
	}
	return nil
}

func (n *RedisNotifier) Wait(ctx context.Context, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	case <-n.wake:
		return true
	}
}

// drain collapses the subscription into a capacity-1 wake signal; workers
// claim in batches, so one pending wakeup is enough.
func (n *RedisNotifier) drain(ctx context.Context) {
	channel := n.sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-channel:
			if !ok {
				return
			}
			select {
			case n.wake <- struct{}{}:
			default:
			}
		}
	}
}
