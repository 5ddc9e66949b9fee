package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepo struct {
	pool *pgxpool.Pool
}

type HistoryRecord struct {
	SessionID    string
	UserA        int64
	UserB        int64
	StartedAt    time.Time
	EndedAt      time.Time
	MessageCount int
	Revealed     bool
}

func NewHistoryRepo(pool *pgxpool.Pool) *HistoryRepo {
	return &HistoryRepo{pool: pool}
}

// ArchiveSession stores the ended chat and bumps the pair counter in one
// transaction. Re-archiving a session leaves both untouched.
func (r *HistoryRepo) ArchiveSession(ctx context.Context, record HistoryRecord) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if record.SessionID == "" || record.UserA <= 0 || record.UserB <= 0 {
		return fmt.Errorf("invalid history payload")
	}

	return WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
INSERT INTO chat_history (
	session_id,
	user_a,
	user_b,
	started_at,
	ended_at,
	message_count,
	revealed
) VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (session_id) DO NOTHING
`, record.SessionID, record.UserA, record.UserB,
			record.StartedAt, record.EndedAt, record.MessageCount, record.Revealed)
		if err != nil {
			return fmt.Errorf("archive chat session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}

		if _, err := tx.Exec(ctx, `
INSERT INTO chat_pairs (user_low, user_high, sessions_count, last_chatted_at)
VALUES (LEAST($1, $2), GREATEST($1, $2), 1, $3)
ON CONFLICT (user_low, user_high) DO UPDATE SET
	sessions_count = chat_pairs.sessions_count + 1,
	last_chatted_at = EXCLUDED.last_chatted_at
`, record.UserA, record.UserB, record.EndedAt); err != nil {
			return fmt.Errorf("bump pair counter: %w", err)
		}

		return nil
	})
}

// PairSessionCount is how many chats the two users have had together, in
// either order. The counter lives outside chat_history so retention
// purges do not reset it.
func (r *HistoryRepo) PairSessionCount(ctx context.Context, userID, otherID int64) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || otherID <= 0 {
		return 0, fmt.Errorf("invalid history lookup payload")
	}

	const query = `
SELECT sessions_count FROM chat_pairs
WHERE user_low = LEAST($1, $2) AND user_high = GREATEST($1, $2)
`

	var count int
	err := r.pool.QueryRow(ctx, query, userID, otherID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count pair sessions: %w", err)
	}

	return count, nil
}

func (r *HistoryRepo) PurgeEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM chat_history WHERE ended_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge chat history: %w", err)
	}

	return tag.RowsAffected(), nil
}
