package engine

import (
	"math/rand"
	"sync"
	"time"
)

// Source yields uniform samples in [0, 1). The engine draws exactly one
// sample per handled message; injecting a Source makes the skip
// decision deterministic in tests.
type Source interface {
	Float64() float64
}

// lockedSource is the default Source, safe for concurrent use.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedSource() *lockedSource {
	return &lockedSource{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
