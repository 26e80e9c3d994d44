// Package queue carries worker wake-up signals. Job state itself lives in
// the jobs repository; a notifier only shortens the latency between an
// enqueue and the next claim attempt, so losing a notification is harmless.
package queue

import (
	"context"
	"time"
)

// Notifier signals workers that new jobs were enqueued.
type Notifier interface {
	// Notify announces that count jobs were enqueued for a project.
	Notify(ctx context.Context, projectID string, count int) error
	// Wait blocks until a notification arrives or timeout elapses.
	// Returns true when woken by a notification.
	Wait(ctx context.Context, timeout time.Duration) bool
}

// LocalNotifier is the in-process fallback used when Redis is not
// configured.
type LocalNotifier struct {
	wake chan struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{wake: make(chan struct{}, 1)}
}

func (n *LocalNotifier) Notify(_ context.Context, _ string, _ int) error {
	select {
	case n.wake <- struct{}{}:
	default:
	}
	return nil
}

func (n *LocalNotifier) Wait(ctx context.Context, timeout time.Duration) bool {
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
