package invoices

import (
	"context"
	"fmt"
	"sync"

	"github.com/ateliermora/storefront-backend/pkg/logger"
)

// Dispatcher hands freshly created orders to a bounded in-process worker
// pool so the checkout response never waits on PDF rendering. Losing a
// dispatch is acceptable: the durable job table is the source of truth and
// the job worker picks up anything the pool dropped.
type Dispatcher struct {
	generator *Generator
	logg      *logger.Logger

	queue chan string
	wg    sync.WaitGroup
	once  sync.Once
}

// NewDispatcher builds a dispatcher with the given pool size and queue
// depth.
func NewDispatcher(generator *Generator, workers, depth int, logg *logger.Logger) (*Dispatcher, error) {
	if generator == nil {
		return nil, fmt.Errorf("invoice generator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if workers <= 0 {
		workers = 1
	}
	if depth <= 0 {
		depth = workers
	}

	d := &Dispatcher{
		generator: generator,
		logg:      logg,
		queue:     make(chan string, depth),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run()
	}
	return d, nil
}

// Dispatch enqueues the order for generation. Returns false when the queue
// is full or the dispatcher is stopped; the durable worker covers both.
func (d *Dispatcher) Dispatch(ctx context.Context, orderID string) bool {
	defer func() {
		if recover() != nil {
			d.logg.Warn(ctx, "invoice dispatch after shutdown")
		}
	}()

	select {
	case d.queue <- orderID:
		return true
	default:
		d.logg.Warn(d.logg.WithOrderID(ctx, orderID), "invoice queue full, deferring to job worker")
		return false
	}
}

// Stop drains the queue and waits for in-flight generations.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for orderID := range d.queue {
		// Generation runs on a background context: the request that
		// dispatched the order has long since returned.
		if err := d.generator.Generate(context.Background(), orderID, "dispatch"); err != nil {
			d.logg.Error(d.logg.WithOrderID(context.Background(), orderID), "dispatched invoice generation failed", err)
		}
	}
}
