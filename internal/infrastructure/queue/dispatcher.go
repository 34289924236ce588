package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mrms/resource-management/internal/api/metrics"
	"github.com/mrms/resource-management/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher fans purchase events out to a fixed set of workers. Events for
// the same order number always land on the same worker, so they are applied
// in arrival order.
type Dispatcher struct {
	workers []chan ports.PurchaseEventInput
	service ports.EventService
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers shards.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, service ports.EventService, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.PurchaseEventInput, numWorkers),
		service: service,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.PurchaseEventInput, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go func(id int, ch <-chan ports.PurchaseEventInput) {
			defer d.wg.Done()
			d.runWorker(ctx, id, ch)
		}(i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands the event to the worker that owns its order number.
// It blocks only when that worker's buffer is full.
func (d *Dispatcher) Enqueue(event ports.PurchaseEventInput) {
	idx := d.shardIndex(event.OrderNumber)
	d.workers[idx] <- event
	metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
}

// EnqueueBatch enqueues events in slice order.
func (d *Dispatcher) EnqueueBatch(events []ports.PurchaseEventInput) {
	for _, e := range events {
		d.Enqueue(e)
	}
}

func (d *Dispatcher) shardIndex(orderNumber string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(orderNumber))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.PurchaseEventInput) {
	depth := metrics.EventsQueueDepth.WithLabelValues(strconv.Itoa(id))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			depth.Set(float64(len(ch)))
			if err := d.service.Process(ctx, event); err != nil {
				d.log.Error().Err(err).
					Str("order_number", event.OrderNumber).
					Str("status", event.Status).
					Int("worker_id", id).
					Msg("event processing failed")
			}
		}
	}
}
