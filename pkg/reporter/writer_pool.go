package reporter

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
)

// writerPool runs best-effort shared-store writes off the event path. Each
// worker owns one bounded lane and jobs are routed to a lane by key, so jobs
// sharing a key run strictly in submission order while different keys proceed
// in parallel. Lanes are bounded: when one is full the write is dropped with
// a warning rather than blocking event acknowledgement. Mirror writes are
// full overwrites, so a dropped one is healed by the next state change.
type writerPool struct {
	lanes  []chan func(context.Context)
	logger *slog.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

func newWriterPool(ctx context.Context, workers, queueSize int, logger *slog.Logger) *writerPool {
	pool := &writerPool{
		lanes:  make([]chan func(context.Context), workers),
		logger: logger,
	}

	for i := range pool.lanes {
		lane := make(chan func(context.Context), queueSize)
		pool.lanes[i] = lane

		pool.wg.Add(1)

		go func() {
			defer pool.wg.Done()

			for job := range lane {
				job(ctx)
			}
		}()
	}

	return pool
}

// Submit enqueues a job on the lane owning the key, reporting whether it was
// accepted. A terminal cleanup submitted after a mirror write for the same
// instance lands on the same lane and can never overtake it.
func (p *writerPool) Submit(key string, job func(context.Context)) bool {
	lane := p.lanes[p.laneFor(key)]

	select {
	case lane <- job:
		return true
	default:
		p.logger.Warn("Background writer queue full, dropping write", "key", key)

		return false
	}
}

func (p *writerPool) laneFor(key string) int {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(key))

	return int(hash.Sum32() % uint32(len(p.lanes)))
}

// Stop drains queued jobs and waits for the workers to finish.
func (p *writerPool) Stop() {
	p.once.Do(func() {
		for _, lane := range p.lanes {
			close(lane)
		}
	})

	p.wg.Wait()
}
