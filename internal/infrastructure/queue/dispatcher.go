package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/sirpyerre/item-catalog/internal/api/metrics"
	"github.com/sirpyerre/item-catalog/internal/core/domain"
	"github.com/sirpyerre/item-catalog/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	recordTimeout  = 5 * time.Second
)

// Dispatcher routes auth events to a fixed set of workers using consistent
// hashing on the email, guaranteeing per-account event ordering. It
// implements ports.AuditPublisher.
type Dispatcher struct {
	workers   []chan domain.AuthEvent
	sink      ports.AuditSink
	log       zerolog.Logger
	done      chan struct{}
	wg        sync.WaitGroup
	closed    atomic.Bool
	closeOnce sync.Once
	dropped   atomic.Uint64
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, sink ports.AuditSink, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan domain.AuthEvent, numWorkers),
		sink:    sink,
		log:     log,
		done:    make(chan struct{}),
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.AuthEvent, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. ctx only supplies values to the sink
// calls; its cancellation does not stop the workers. Only Close stops them,
// after the queued events have been flushed.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(context.WithoutCancel(ctx), i, ch)
	}
}

// Publish hands an event to the worker responsible for its email. It never
// blocks: when that worker's buffer is full the event is dropped and counted.
func (d *Dispatcher) Publish(event domain.AuthEvent) {
	if d.closed.Load() {
		return
	}
	idx := d.shardIndex(event.Email)
	select {
	case d.workers[idx] <- event:
		metrics.AuditQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		d.dropped.Add(1)
		metrics.AuditEventsTotal.WithLabelValues("dropped").Inc()
	}
}

// Dropped reports how many events were discarded because a buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops accepting events, drains the queues into the sink and waits
// for every worker to exit. It is safe to call more than once.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// shardIndex maps an email deterministically to a worker index.
func (d *Dispatcher) shardIndex(email string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(email))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.AuthEvent) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case event := <-ch:
			d.record(ctx, id, event)
			metrics.AuditQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
		case <-d.done:
			for {
				select {
				case event := <-ch:
					d.record(ctx, id, event)
				default:
					metrics.AuditQueueDepth.WithLabelValues(label).Set(0)
					return
				}
			}
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, id int, event domain.AuthEvent) {
	ctx, cancel := context.WithTimeout(ctx, recordTimeout)
	defer cancel()

	if err := d.sink.Record(ctx, event); err != nil {
		metrics.AuditEventsTotal.WithLabelValues("failed").Inc()
		d.log.Error().Err(err).
			Str("event_type", string(event.Type)).
			Int("worker_id", id).
			Msg("audit event delivery failed")
		return
	}
	metrics.AuditEventsTotal.WithLabelValues("recorded").Inc()
}
