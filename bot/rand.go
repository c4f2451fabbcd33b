package bot

import (
	"math/rand"
	"sync"
	"time"
)

// randSource is the randomness consumed by drops, reactions, and presence
// rotation. *rand.Rand satisfies it; tests inject seeded sources.
type randSource interface {
	Intn(n int) int
	Float64() float64
}

// lockedRand guards a math/rand source so it can be shared by handlers
// running on concurrent gateway event goroutines.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRand() *lockedRand {
	return &lockedRand{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}
