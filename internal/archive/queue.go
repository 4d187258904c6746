package archive

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// Queue is the bounded ingestion queue in front of the Store. Enqueue never
// blocks the event handler: when the queue is full the message is dropped,
// counted, and logged, so overload is observable instead of growing memory
// without bound.
type Queue struct {
	store     *Store
	ch        chan *ArchivedMessage
	batchSize int
	interval  time.Duration
	log       waLog.Logger

	dropped  atomic.Uint64
	enqueued atomic.Uint64
	flushed  atomic.Uint64

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewQueue creates a Queue with the given capacity and flush policy.
func NewQueue(store *Store, capacity, batchSize int, interval time.Duration, log waLog.Logger) *Queue {
	if capacity <= 0 {
		capacity = 4096
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &Queue{
		store:     store,
		ch:        make(chan *ArchivedMessage, capacity),
		batchSize: batchSize,
		interval:  interval,
		log:       log.Sub("IngestQueue"),
		stopCh:    make(chan struct{}),
	}
}

// Enqueue buffers a message for archival. Returns false when the queue is
// full and the message was dropped.
func (q *Queue) Enqueue(m *ArchivedMessage) bool {
	select {
	case q.ch <- m:
		q.enqueued.Add(1)
		return true
	default:
		n := q.dropped.Add(1)
		q.log.Warnf("Ingestion queue full, dropped message %s (%d dropped total)", m.ID, n)
		return false
	}
}

// Start launches the consumer, which flushes a batch every interval until
// ctx is canceled or Stop is called, then drains whatever is left.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		ticker := time.NewTicker(q.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				q.drain()
				return
			case <-q.stopCh:
				q.drain()
				return
			case <-ticker.C:
				q.FlushBatch()
			}
		}
	}()
}

// Stop stops the consumer after a final drain.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopCh)
	})
	q.wg.Wait()
}

// FlushBatch pops up to batchSize messages FIFO and appends each to its
// partition. A write failure for one message is logged and does not block
// the rest of the batch. Returns the number of messages written.
func (q *Queue) FlushBatch() int {
	written := 0
	for i := 0; i < q.batchSize; i++ {
		select {
		case m := <-q.ch:
			if err := q.store.Append(m); err != nil {
				q.log.Errorf("Failed to archive message %s: %v", m.ID, err)
				continue
			}
			written++
		default:
			q.flushed.Add(uint64(written))
			return written
		}
	}
	q.flushed.Add(uint64(written))
	return written
}

func (q *Queue) drain() {
	total := 0
	for {
		n := q.FlushBatch()
		total += n
		if n == 0 && len(q.ch) == 0 {
			break
		}
	}
	if total > 0 {
		q.log.Infof("Drained %d queued messages on shutdown", total)
	}
}

// Len returns the number of currently queued messages.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Stats reports queue counters since startup.
func (q *Queue) Stats() (enqueued, flushed, dropped uint64) {
	return q.enqueued.Load(), q.flushed.Load(), q.dropped.Load()
}
