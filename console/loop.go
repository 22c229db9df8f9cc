package console

import (
	"context"
)

// Loop is a single-consumer callback queue. Producers Post from any goroutine;
// callbacks only run inside RunWhile or Drain on the consuming goroutine.
type Loop struct {
	queue chan func()
}

// NewLoop creates a loop with room for backlog pending callbacks before Post blocks.
func NewLoop(backlog int) *Loop {
	if backlog < 1 {
		backlog = 1
	}
	return &Loop{queue: make(chan func(), backlog)}
}

// Post enqueues fn. It blocks while the queue is full.
func (l *Loop) Post(fn func()) {
	l.queue <- fn
}

// RunWhile runs queued callbacks until cond reports false. cond is checked
// before each wait, so a condition that is already false returns at once.
// It returns ctx.Err() if ctx is done first.
func (l *Loop) RunWhile(ctx context.Context, cond func() bool) error {
	for cond() {
		select {
		case fn := <-l.queue:
			fn()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Drain runs every callback that is already queued without waiting and
// returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.queue:
			fn()
			n++
		default:
			return n
		}
	}
}
