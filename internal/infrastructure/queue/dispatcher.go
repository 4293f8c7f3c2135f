package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/storefront/store-api/internal/core/domain"
	"github.com/storefront/store-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

const (
	ResultPublished = "published"
	ResultFailed    = "failed"
	ResultDropped   = "dropped"
)

// Recorder receives dispatcher metrics. Nil-safe via noopRecorder.
type Recorder interface {
	EventPublished(result string)
	QueueDepth(workerID, depth int)
}

type noopRecorder struct{}

func (noopRecorder) EventPublished(string) {}
func (noopRecorder) QueueDepth(int, int)   {}

var _ ports.PurchaseEventQueue = (*Dispatcher)(nil)

// Dispatcher fans purchase events out to a fixed set of workers, sharded by
// client so one client's events are published in the order they were created.
type Dispatcher struct {
	workers   []chan domain.PurchaseCreatedEvent
	publisher ports.PurchaseEventPublisher
	recorder  Recorder
	log       zerolog.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, publisher ports.PurchaseEventPublisher, recorder Recorder, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	d := &Dispatcher{
		workers:   make([]chan domain.PurchaseCreatedEvent, numWorkers),
		publisher: publisher,
		recorder:  recorder,
		log:       log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.PurchaseCreatedEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or after Close has drained their queues.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands evt to the worker owning its client. It never blocks: when
// that worker's buffer is full the event is dropped and logged.
func (d *Dispatcher) Enqueue(evt domain.PurchaseCreatedEvent) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(evt, "dispatcher closed")
		return
	}

	idx := d.shardIndex(evt.ClientID)
	select {
	case d.workers[idx] <- evt:
		d.recorder.QueueDepth(idx, len(d.workers[idx]))
	default:
		d.drop(evt, "worker queue full")
	}
}

// Close stops accepting events and waits for queued ones to be published.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps a client deterministically to a worker index.
func (d *Dispatcher) shardIndex(clientID uuid.UUID) int {
	h := fnv.New32a()
	_, _ = h.Write(clientID[:])
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) drop(evt domain.PurchaseCreatedEvent, reason string) {
	d.recorder.EventPublished(ResultDropped)
	d.log.Warn().
		Str("purchase_id", evt.PurchaseID.String()).
		Str("reason", reason).
		Msg("purchase event dropped")
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.PurchaseCreatedEvent) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			d.recorder.QueueDepth(id, len(ch))
			if err := d.publisher.Publish(ctx, evt); err != nil {
				d.recorder.EventPublished(ResultFailed)
				d.log.Error().Err(err).
					Str("purchase_id", evt.PurchaseID.String()).
					Int("worker_id", id).
					Msg("purchase event publish failed")
				continue
			}
			d.recorder.EventPublished(ResultPublished)
		}
	}
}
