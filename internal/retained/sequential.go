package retained

import (
	"math/rand"
	"time"

	"github.com/ivanyu/pyheap-go/internal/address"
	"github.com/ivanyu/pyheap-go/internal/config"
)

// calculateObjectsSequential is Phase 2 run on a single goroutine, in
// shuffled address order, logging ETA progress every cfg.ChunkSize
// objects processed — mirrors
// RetainedHeapSequentialCalculator._calculate_for_all_objects.
func (e *Engine) calculateObjectsSequential(cfg config.Config) map[address.Address]int64 {
	addrs := e.shuffledAddresses()
	total := len(addrs)
	stepSize := cfg.ChunkSize
	if stepSize <= 0 {
		stepSize = config.DefaultChunkSize
	}

	result := make(map[address.Address]int64, total)
	progress := newETA(total)
	globalStart := time.Now()
	stepStart := time.Now()

	for i, addr := range addrs {
		if i%stepSize == 0 && i > 0 {
			d := time.Since(stepStart)
			progress.makeStep(stepSize, d)
			stepStart = time.Now()
			e.log.Info("retained heap progress",
				"done", i, "total", total, "took", d, "eta", progress.estimate())
		}
		result[addr] = e.simulate([]address.Address{addr}, nil, true)
	}

	e.log.Info("retained heap for objects done", "took", time.Since(globalStart))
	return result
}

func (e *Engine) shuffledAddresses() []address.Address {
	addrs := make([]address.Address, 0, len(e.heap.Objects))
	for a := range e.heap.Objects {
		addrs = append(addrs, a)
	}
	rand.Shuffle(len(addrs), func(i, j int) { addrs[i], addrs[j] = addrs[j], addrs[i] })
	return addrs
}
