package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/kaboomlabs/tntlauncher/db"
	"github.com/kaboomlabs/tntlauncher/testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	conn := testutil.OpenTestDB(t)
	ctx := context.Background()
	if err := db.Migrate(ctx, conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `TRUNCATE balances`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return NewStore(conn)
}

func TestAwardAccumulates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, amount := range []int64{1, 4, 2} {
		if err := s.Award(ctx, 100, amount); err != nil {
			t.Fatalf("award %d: %v", amount, err)
		}
	}
	got, err := s.Balance(ctx, 100)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got != 7 {
		t.Errorf("balance = %d, want 7", got)
	}
}

func TestAwardRejectsNonPositive(t *testing.T) {
	s := &Store{} // amount check runs before storage is touched
	ctx := context.Background()
	for _, amount := range []int64{0, -1} {
		if err := s.Award(ctx, 100, amount); err == nil {
			t.Errorf("Award(100, %d): expected error", amount)
		}
	}
}

func TestBalanceUnknownUserIsZero(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	got, err := s.Balance(ctx, 424242)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	// Reading must not create a row.
	players, _, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if players != 0 {
		t.Errorf("players = %d after read-only access, want 0", players)
	}
}

func TestTopOrderingAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	awards := map[int64]int64{1: 3, 2: 5, 3: 1}
	for id, pts := range awards {
		if err := s.Award(ctx, id, pts); err != nil {
			t.Fatalf("award: %v", err)
		}
	}

	top, err := s.Top(ctx, 2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	want := []Entry{{UserID: 2, Points: 5}, {UserID: 1, Points: 3}}
	if len(top) != len(want) {
		t.Fatalf("top(2) returned %d entries, want %d", len(top), len(want))
	}
	for i := range want {
		if top[i] != want[i] {
			t.Errorf("top[%d] = %+v, want %+v", i, top[i], want[i])
		}
	}

	// Fewer users than n: all of them come back.
	all, err := s.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("top(10) returned %d entries, want 3", len(all))
	}
}

func TestTopTieBreakIsAscendingUserID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []int64{9, 3, 6} {
		if err := s.Award(ctx, id, 4); err != nil {
			t.Fatalf("award: %v", err)
		}
	}
	top, err := s.Top(ctx, 3)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	for i, wantID := range []int64{3, 6, 9} {
		if top[i].UserID != wantID {
			t.Errorf("top[%d].UserID = %d, want %d", i, top[i].UserID, wantID)
		}
	}
}

func TestTopEmptyLedger(t *testing.T) {
	s := newTestStore(t)
	top, err := s.Top(context.Background(), DefaultTopN)
	if err != nil {
		t.Fatalf("top on empty ledger: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("top = %v, want empty", top)
	}
}

func TestConcurrentAwardsDoNotLoseUpdates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 16
	const perWorker = 10
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				if err := s.Award(ctx, 777, 1); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent award: %v", err)
	}

	got, err := s.Balance(ctx, 777)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if got != workers*perWorker {
		t.Errorf("balance = %d, want %d", got, workers*perWorker)
	}
}
