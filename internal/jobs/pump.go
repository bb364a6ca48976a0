package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"threadloom/internal/config"
	"threadloom/internal/graph"
	"threadloom/internal/logging"
	"threadloom/internal/metrics"
)

const maxBatch = 256

var ErrStopped = errors.New("pump stopped")

type op struct {
	fn        func(*graph.Graph)
	throttled bool
	done      chan struct{}
}

// Pump owns a graph and applies work to it from a single goroutine, so any
// number of producers can feed one graph. Work runs strictly in submission order.
type Pump struct {
	g       *graph.Graph
	ops     chan op
	limiter *rate.Limiter
	stopped chan struct{}

	processed atomic.Uint64
	started   atomic.Bool
}

// NewPump wraps g. Event ingestion is throttled to cfg.RatePerSec (unlimited when 0).
func NewPump(g *graph.Graph, cfg config.IngestConfig) *Pump {
	limit, burst := rate.Inf, cfg.Burst
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
		burst = max(burst, 1)
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	return &Pump{
		g:       g,
		ops:     make(chan op, size),
		limiter: rate.NewLimiter(limit, burst),
		stopped: make(chan struct{}),
	}
}

// Submit queues raw event JSON for ingestion. raw must not be modified afterwards.
func (p *Pump) Submit(ctx context.Context, raw []byte) error {
	return p.enqueue(ctx, op{fn: func(g *graph.Graph) { g.Ingest(raw) }, throttled: true})
}

// Do runs fn on the pump goroutine after all previously submitted work and
// waits for it. fn must not retain the graph.
func (p *Pump) Do(ctx context.Context, fn func(*graph.Graph)) error {
	done := make(chan struct{})
	if err := p.enqueue(ctx, op{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-p.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pump) enqueue(ctx context.Context, o op) error {
	select {
	case <-p.stopped:
		return ErrStopped
	default:
	}
	select {
	case p.ops <- o:
		return nil
	case <-p.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Processed is the number of ingest operations applied so far.
func (p *Pump) Processed() uint64 { return p.processed.Load() }

// Run drains the queue until ctx is cancelled. It may be called once.
func (p *Pump) Run(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return errors.New("pump already running")
	}
	defer close(p.stopped)
	for {
		select {
		case <-ctx.Done():
			logging.Info("pump_stop", map[string]any{"processed": p.Processed()})
			return ctx.Err()
		case o := <-p.ops:
			if err := p.batch(ctx, o); err != nil {
				logging.Info("pump_stop", map[string]any{"processed": p.Processed()})
				return err
			}
		}
	}
}

// batch applies first plus whatever is already queued, up to maxBatch ops.
func (p *Pump) batch(ctx context.Context, first op) error {
	start := time.Now()
	defer metrics.ObservePumpBatch(start)
	if err := p.apply(ctx, first); err != nil {
		return err
	}
	for n := 1; n < maxBatch; n++ {
		select {
		case o := <-p.ops:
			if err := p.apply(ctx, o); err != nil {
				return err
			}
		default:
			return nil
		}
	}
	return nil
}

func (p *Pump) apply(ctx context.Context, o op) error {
	if o.throttled {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}
		p.processed.Add(1)
	}
	o.fn(p.g)
	if o.done != nil {
		close(o.done)
	}
	return nil
}
