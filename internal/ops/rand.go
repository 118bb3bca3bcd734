package ops

import "sync"

// splitmix64 backs __rand64 the same way the original runtime falls back
// to it when rdrand isn't available: there is no hardware RNG instruction
// reachable from portable Go, so this reimplementation always uses it,
// seeded the same way __srand seeds the C fallback.
type rng struct {
	mu    sync.Mutex
	state uint64
}

var defaultRNG = &rng{state: 0x123456789ABCDEF0}

func (r *rng) seed(s uint64) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *rng) next() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state += 0x9E3779B97F4A7C15
	z := r.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// Srand implements __srand.
func Srand(seed int64) { defaultRNG.seed(uint64(seed)) }

// Rand64 implements __rand64: the generator's output shifted right by one
// to a non-negative 63-bit value, returned raw (not tagged).
func Rand64() int64 { return int64(defaultRNG.next() >> 1) }
