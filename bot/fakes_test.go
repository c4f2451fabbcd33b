package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kaboomlabs/tntlauncher/ledger"
)

type sentMessage struct {
	ChannelID string
	Content   string
}

// fakeGateway is an in-memory Gateway for handler tests.
type fakeGateway struct {
	mu      sync.Mutex
	sent    []sentMessage
	roster  map[string]Member
	members []Member

	sendErr    error
	membersErr error

	statusUpdates []string
	statusErr     error
	statusDelay   time.Duration
	inFlight      int32
	maxInFlight   int32
}

func (g *fakeGateway) SendMessage(channelID, content string) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, sentMessage{ChannelID: channelID, Content: content})
	return nil
}

func (g *fakeGateway) Member(guildID, userID string) (*Member, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m, ok := g.roster[userID]; ok {
		return &m, nil
	}
	return nil, fmt.Errorf("member %s: %w", userID, ErrMemberNotFound)
}

func (g *fakeGateway) Members(guildID string) ([]Member, error) {
	if g.membersErr != nil {
		return nil, g.membersErr
	}
	return g.members, nil
}

func (g *fakeGateway) UpdateStatus(text string) error {
	cur := atomic.AddInt32(&g.inFlight, 1)
	defer atomic.AddInt32(&g.inFlight, -1)
	for {
		prev := atomic.LoadInt32(&g.maxInFlight)
		if cur <= prev || atomic.CompareAndSwapInt32(&g.maxInFlight, prev, cur) {
			break
		}
	}
	if g.statusDelay > 0 {
		time.Sleep(g.statusDelay)
	}
	if g.statusErr != nil {
		return g.statusErr
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusUpdates = append(g.statusUpdates, text)
	return nil
}

func (g *fakeGateway) sentMessages() []sentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]sentMessage(nil), g.sent...)
}

func (g *fakeGateway) statuses() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.statusUpdates...)
}

// fakeLedger is an in-memory Ledger for handler tests.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[int64]int64
	err      error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[int64]int64)}
}

func (l *fakeLedger) Award(ctx context.Context, userID, amount int64) error {
	if l.err != nil {
		return l.err
	}
	if amount <= 0 {
		return fmt.Errorf("award amount must be positive, got %d", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] += amount
	return nil
}

func (l *fakeLedger) Balance(ctx context.Context, userID int64) (int64, error) {
	if l.err != nil {
		return 0, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

func (l *fakeLedger) Top(ctx context.Context, n int) ([]ledger.Entry, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entries := make([]ledger.Entry, 0, len(l.balances))
	for id, pts := range l.balances {
		entries = append(entries, ledger.Entry{UserID: id, Points: pts})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// scriptRand replays fixed values so tests can steer random choices.
// Exhausted scripts return zero values.
type scriptRand struct {
	ints   []int
	floats []float64
}

func (r *scriptRand) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0] % n
	r.ints = r.ints[1:]
	return v
}

func (r *scriptRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}
