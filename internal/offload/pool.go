// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package offload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yaug/yaug/internal/observability"
)

var tracer = otel.Tracer("yaug/offload")

// Sentinel errors, matched with errors.Is.
var (
	ErrPoolSaturated = errors.New("offload queue is full")
	ErrPoolClosed    = errors.New("offload pool is closed")
	ErrTaskPanicked  = errors.New("offloaded task panicked")
)

// Options sizes a Pool. Zero values select the defaults.
type Options struct {
	// Workers is the number of goroutines running tasks. Default GOMAXPROCS.
	Workers int `koanf:"workers" yaml:"workers"`
	// QueueSize is the number of tasks that may wait for a worker.
	// Default 4 x Workers.
	QueueSize int `koanf:"queue_size" yaml:"queue_size"`
}

// Validate rejects negative sizes.
func (o Options) Validate() error {
	if o.Workers < 0 {
		return oops.Code("OFFLOAD_INVALID_OPTIONS").
			With("workers", o.Workers).
			Errorf("workers must not be negative")
	}
	if o.QueueSize < 0 {
		return oops.Code("OFFLOAD_INVALID_OPTIONS").
			With("queue_size", o.QueueSize).
			Errorf("queue size must not be negative")
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.QueueSize == 0 {
		o.QueueSize = 4 * o.Workers
	}
	return o
}

type task struct {
	run      func()
	enqueued time.Time
}

// Pool is a fixed-size worker pool with a bounded queue.
type Pool struct {
	opts   Options
	logger *slog.Logger
	tasks  chan task
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts a pool's workers. Call Close to stop them.
func New(opts Options, logger *slog.Logger) (*Pool, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, oops.Code("OFFLOAD_INVALID_OPTIONS").Errorf("logger is required")
	}
	opts = opts.withDefaults()

	p := &Pool{
		opts:   opts,
		logger: logger,
		tasks:  make(chan task, opts.QueueSize),
	}

	p.wg.Add(opts.Workers)
	for range opts.Workers {
		go p.worker()
	}

	logger.Debug("offload pool started", "workers", opts.Workers, "queue_size", opts.QueueSize)
	return p, nil
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int { return p.opts.Workers }

// QueueSize returns the queue capacity.
func (p *Pool) QueueSize() int { return p.opts.QueueSize }

// Closed reports whether Close has been called.
func (p *Pool) Closed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		observability.SetOffloadQueueDepth(len(p.tasks))
		observability.ObserveOffloadWait(time.Since(t.enqueued))
		t.run()
	}
}

func (p *Pool) submit(t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		observability.RecordOffloadRejected("closed")
		return oops.Code("OFFLOAD_POOL_CLOSED").Wrap(ErrPoolClosed)
	}

	select {
	case p.tasks <- t:
		observability.SetOffloadQueueDepth(len(p.tasks))
		return nil
	default:
		observability.RecordOffloadRejected("saturated")
		return oops.Code("OFFLOAD_POOL_SATURATED").
			With("queue_size", p.opts.QueueSize).
			Wrap(ErrPoolSaturated)
	}
}

// Execute runs fn on the pool and waits for it. It lets callers that only
// need an error depend on a small interface instead of the generic Do.
func (p *Pool) Execute(ctx context.Context, fn func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Close stops accepting tasks, lets queued tasks finish, and waits for the
// workers to exit or ctx to end. Calling Close more than once is safe.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.tasks)
	}
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		observability.SetOffloadQueueDepth(0)
		p.logger.Debug("offload pool stopped")
		return nil
	case <-ctx.Done():
		return oops.Code("OFFLOAD_CLOSE_TIMEOUT").Wrap(ctx.Err())
	}
}

// Do runs fn on a pool worker and returns its result.
//
// fn receives a context that keeps ctx's values and trace span but is not
// cancelled with it. If ctx ends before fn finishes, Do returns ctx.Err()
// and fn's result is discarded once it completes. A panic in fn is
// recovered and reported as ErrTaskPanicked.
func Do[T any](ctx context.Context, p *Pool, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	detached := context.WithoutCancel(ctx)
	enqueued := time.Now()

	run := func() {
		taskCtx, span := tracer.Start(detached, "offload.task",
			trace.WithAttributes(attribute.Int64("offload.wait_us", time.Since(enqueued).Microseconds())))
		defer span.End()

		defer func() {
			if r := recover(); r != nil {
				err := oops.Code("OFFLOAD_TASK_PANICKED").
					With("panic", fmt.Sprint(r)).
					Wrap(ErrTaskPanicked)
				p.logger.ErrorContext(taskCtx, "offloaded task panicked", "panic", fmt.Sprint(r))
				span.RecordError(err)
				span.SetStatus(codes.Error, "panic")
				done <- result{err: err}
			}
		}()

		val, err := fn(taskCtx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		done <- result{val: val, err: err}
	}

	if err := p.submit(task{run: run, enqueued: enqueued}); err != nil {
		return zero, err
	}

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		observability.RecordOffloadRejected("abandoned")
		return zero, ctx.Err()
	}
}
