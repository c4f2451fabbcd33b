// Package ledger owns all reads and writes of the per-user point balances.
// Every mutation is a single atomic SQL statement, so concurrent awards for
// the same user cannot lose updates.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
)

// DefaultTopN is the leaderboard size used by the top command.
const DefaultTopN = 5

// Entry is one leaderboard row.
type Entry struct {
	UserID int64
	Points int64
}

// Store wraps the balances table. All access to the table goes through it.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store { return &Store{DB: db} }

// Award adds amount points to userID's balance, creating the row when absent.
// amount must be positive; the ledger never decrements.
func (s *Store) Award(ctx context.Context, userID, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("award amount must be positive, got %d", amount)
	}
	q := `INSERT INTO balances(user_id, points) VALUES($1,$2)
		  ON CONFLICT(user_id) DO UPDATE SET
		    points=balances.points + EXCLUDED.points,
		    updated_at=NOW()`
	if _, err := s.DB.ExecContext(ctx, q, userID, amount); err != nil {
		return fmt.Errorf("award %d to %d: %w", amount, userID, err)
	}
	return nil
}

// Balance returns userID's current balance. Unknown users have balance 0;
// no row is created by reading.
func (s *Store) Balance(ctx context.Context, userID int64) (int64, error) {
	var points int64
	err := s.DB.QueryRowContext(ctx, `SELECT points FROM balances WHERE user_id = $1`, userID).Scan(&points)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance of %d: %w", userID, err)
	}
	return points, nil
}

// Top returns at most n entries ordered by descending points, ties broken
// by ascending user id. An empty ledger yields an empty slice.
func (s *Store) Top(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	rows, err := s.DB.QueryContext(ctx, `SELECT user_id, points FROM balances ORDER BY points DESC, user_id ASC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, n)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.UserID, &e.Points); err != nil {
			return nil, fmt.Errorf("leaderboard scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("leaderboard rows: %w", err)
	}
	return entries, nil
}

// Stats reports how many users hold points and the total outstanding.
// Used by the ops status endpoint.
func (s *Store) Stats(ctx context.Context) (players, totalPoints int64, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(points), 0) FROM balances`).Scan(&players, &totalPoints)
	if err != nil {
		return 0, 0, fmt.Errorf("ledger stats: %w", err)
	}
	return players, totalPoints, nil
}
