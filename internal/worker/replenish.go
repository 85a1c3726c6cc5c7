// Package worker runs the post-claim pool backfill off the purchase path.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/julianparmann/seatjumper-sub002/internal/domain"
)

// Generator is the slice of PoolService the worker drives.
type Generator interface {
	Generate(ctx context.Context, gameID string, bundleSize, count int) ([]domain.Pool, error)
}

type request struct {
	gameID     string
	bundleSize int
}

// Replenisher consumes backfill requests from a bounded queue. Enqueueing
// never blocks: when the queue is full the request is dropped and logged,
// because backfill is an optimization the supply monitor will catch up on.
type Replenisher struct {
	gen    Generator
	logger *slog.Logger
	queue  chan request

	stopOnce sync.Once
	started  bool
	stop     chan struct{}
	done     chan struct{}
}

const generateTimeout = 30 * time.Second

func NewReplenisher(gen Generator, logger *slog.Logger, queueSize int) *Replenisher {
	if logger == nil {
		logger = slog.Default()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Replenisher{
		gen:    gen,
		logger: logger,
		queue:  make(chan request, queueSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Request enqueues one replacement pool for the key. Never blocks the caller.
func (r *Replenisher) Request(gameID string, bundleSize int) {
	select {
	case r.queue <- request{gameID: gameID, bundleSize: bundleSize}:
	default:
		r.logger.Warn("replenish queue full, dropping request",
			"game_id", gameID, "bundle_size", bundleSize)
	}
}

// Start launches the consumer loop.
func (r *Replenisher) Start() {
	if r.started {
		return
	}
	r.started = true
	go func() {
		defer close(r.done)
		for {
			select {
			case req := <-r.queue:
				r.process(req)
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop halts the consumer after any in-flight generation finishes. Queued
// requests not yet started are discarded.
func (r *Replenisher) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	if r.started {
		<-r.done
	}
}

func (r *Replenisher) process(req request) {
	ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
	defer cancel()

	if _, err := r.gen.Generate(ctx, req.gameID, req.bundleSize, 1); err != nil {
		// The purchase already committed; backfill failure must not surface.
		r.logger.Error("replenish generation failed",
			"game_id", req.gameID, "bundle_size", req.bundleSize, "error", err)
	}
}
