package retained

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/config"
)

// calculateObjectsParallel is Phase 2 distributed across a worker pool,
// chunking the shuffled address list the way
// RetainedHeapParallelCalculator._calculate_for_all_objects chunks work
// across a process pool — here an errgroup.Group of goroutines, since
// Phase 2 is pure CPU with no shared mutable state (spec.md §5).
func (e *Engine) calculateObjectsParallel(ctx context.Context, cfg config.Config) (map[address.Address]int64, error) {
	addrs := e.shuffledAddresses()
	total := len(addrs)
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}

	chunks := chunkAddresses(addrs, chunkSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	results := make([]map[address.Address]int64, len(chunks))
	var done int64
	progress := newETA(total)
	globalStart := time.Now()
	var progressMu sync.Mutex
	stepStart := time.Now()

	for ci, chunk := range chunks {
		ci, chunk := ci, chunk
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			local := make(map[address.Address]int64, len(chunk))
			for _, addr := range chunk {
				local[addr] = e.simulate([]address.Address{addr}, nil, true)
			}
			results[ci] = local

			n := atomic.AddInt64(&done, int64(len(chunk)))
			progressMu.Lock()
			d := time.Since(stepStart)
			stepStart = time.Now()
			progress.makeStep(len(chunk), d)
			e.log.Info("retained heap progress",
				"done", n, "total", total, "took", d, "eta", progress.estimate())
			progressMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[address.Address]int64, total)
	for _, m := range results {
		for a, v := range m {
			result[a] = v
		}
	}
	e.log.Info("retained heap for objects done", "took", time.Since(globalStart))
	return result, nil
}

func chunkAddresses(addrs []address.Address, size int) [][]address.Address {
	var chunks [][]address.Address
	for i := 0; i < len(addrs); i += size {
		end := i + size
		if end > len(addrs) {
			end = len(addrs)
		}
		chunks = append(chunks, addrs[i:end])
	}
	return chunks
}
