// Package bus is the in-process queue between site workers and the sink
// gateway. Publishes split row batches to the fixed batch size and preserve
// order; a single consumer drains messages through Subscribe.
package bus

import (
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/scout/internal/common"
	"github.com/ternarybob/scout/internal/models"
)

// Bus is an unbounded FIFO of batch messages. Closing stops delivery; pending
// messages are dropped at shutdown since nothing persists across restarts
// anyway.
type Bus struct {
	mu         sync.Mutex
	queue      []models.BusMessage
	delivering bool
	closed     bool

	wake chan struct{}
	quit chan struct{}
	out  chan models.BusMessage

	logger arbor.ILogger
}

func New() *Bus {
	b := &Bus{
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		out:    make(chan models.BusMessage),
		logger: common.GetLogger(),
	}
	go b.pump()
	return b
}

// Publish splits rows into batches of at most models.MaxBatchSize and
// enqueues them in order.
func (b *Bus) Publish(parserTag string, rows []models.Row) {
	if len(rows) == 0 {
		return
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	for start := 0; start < len(rows); start += models.MaxBatchSize {
		end := start + models.MaxBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		b.queue = append(b.queue, models.BusMessage{
			ParserTag: parserTag,
			Batch:     rows[start:end],
		})
	}
	depth := len(b.queue)
	b.mu.Unlock()

	b.logger.Debug().
		Str("parser", parserTag).
		Int("rows", len(rows)).
		Int("queue_depth", depth).
		Msg("Published rows to bus")

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Subscribe returns the delivery channel. One consumer is expected.
func (b *Bus) Subscribe() <-chan models.BusMessage {
	return b.out
}

// Drained reports whether no message is queued or in delivery.
func (b *Bus) Drained() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) == 0 && !b.delivering
}

// Close stops delivery. Publish becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	close(b.quit)
}

func (b *Bus) pump() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			select {
			case <-b.wake:
				continue
			case <-b.quit:
				return
			}
		}

		msg := b.queue[0]
		b.queue = b.queue[1:]
		b.delivering = true
		b.mu.Unlock()

		select {
		case b.out <- msg:
		case <-b.quit:
			return
		}

		b.mu.Lock()
		b.delivering = false
		b.mu.Unlock()
	}
}
