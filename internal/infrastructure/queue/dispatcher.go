package queue

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/99minutos/share-marketplace/internal/core/domain"
	"github.com/99minutos/share-marketplace/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// Dispatcher writes order audit events in the background. Events are sharded
// by order id so that the events of one order are stored in the order they
// were produced.
//
// Dispatcher implements ports.OrderEventRepository and can be handed to the
// order service in place of the store's repository.
type Dispatcher struct {
	workers []chan domain.OrderEvent
	repo    ports.OrderEventRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers writing
// to repo. If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.OrderEventRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.OrderEvent, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.OrderEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. ctx is used for the inserts; workers
// exit once Stop has closed their queues and they are drained.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Stop closes the queues and waits for queued events to be written. No
// InsertEvent call may happen after Stop.
func (d *Dispatcher) Stop() {
	for _, ch := range d.workers {
		close(ch)
	}
	d.wg.Wait()
}

// InsertEvent queues event for its order's worker. It blocks while that
// worker's queue is full and gives up when ctx is done.
func (d *Dispatcher) InsertEvent(ctx context.Context, event *domain.OrderEvent) error {
	select {
	case d.workers[d.shardIndex(event.OrderID)] <- *event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// shardIndex maps an order id deterministically to a worker index.
func (d *Dispatcher) shardIndex(orderID int64) int {
	n := int64(len(d.workers))
	return int(((orderID % n) + n) % n)
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.OrderEvent) {
	defer d.wg.Done()
	for event := range ch {
		if err := d.repo.InsertEvent(ctx, &event); err != nil {
			d.log.Warn().Err(err).
				Int64("order_id", event.OrderID).
				Str("to", event.To.String()).
				Int("worker_id", id).
				Msg("audit event dropped")
		}
	}
}
