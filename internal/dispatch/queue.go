// Package dispatch hands work from network goroutines to the single consumer
// goroutine that owns entity and UI state.
package dispatch

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/worldlink/internal/observability"
)

// Action runs on the consumer goroutine. It must not block.
type Action func()

// Queue is a FIFO of actions. Enqueue is safe from any goroutine; Drain must
// only be called from the consumer.
type Queue struct {
	mu      sync.Mutex
	pending []Action
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends action. Nil actions are ignored.
func (q *Queue) Enqueue(action Action) {
	if action == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, action)
	depth := len(q.pending)
	q.mu.Unlock()
	observability.SetDispatchDepth(depth)
}

// Len reports the number of actions waiting for the next drain.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain removes every action enqueued since the previous drain and runs them in
// order. Actions enqueued while draining run on the next drain. A panicking
// action is logged and skipped. Drain returns the number of actions run.
func (q *Queue) Drain() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()
	observability.SetDispatchDepth(0)

	for i, action := range batch {
		if err := run(action); err != nil {
			observability.RecordDispatchFailure()
			log.Error().Err(err).Int("index", i).Int("batch", len(batch)).Msg("dispatch action failed")
		}
	}
	return len(batch)
}

func run(action Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dispatch: action panicked: %v", r)
		}
	}()
	action()
	return nil
}
