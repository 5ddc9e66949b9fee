package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type BlockRepo struct {
	pool *pgxpool.Pool
}

func NewBlockRepo(pool *pgxpool.Pool) *BlockRepo {
	return &BlockRepo{pool: pool}
}

func (r *BlockRepo) Upsert(ctx context.Context, actorUserID, targetUserID int64, reason string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if actorUserID <= 0 || targetUserID <= 0 || actorUserID == targetUserID {
		return fmt.Errorf("invalid block payload")
	}

	if _, err := r.pool.Exec(ctx, `
INSERT INTO blocks (
	actor_user_id,
	target_user_id,
	reason,
	created_at
) VALUES ($1, $2, $3, NOW())
ON CONFLICT (actor_user_id, target_user_id) DO UPDATE SET
	reason = EXCLUDED.reason
`, actorUserID, targetUserID, strings.TrimSpace(reason)); err != nil {
		return fmt.Errorf("upsert block: %w", err)
	}

	return nil
}

// Blocked reports whether either user has blocked the other. Pairing is
// excluded in both directions.
func (r *BlockRepo) Blocked(ctx context.Context, userID, otherID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 || otherID <= 0 {
		return false, fmt.Errorf("invalid block lookup payload")
	}

	const query = `
SELECT EXISTS (
	SELECT 1 FROM blocks
	WHERE (actor_user_id = $1 AND target_user_id = $2)
	   OR (actor_user_id = $2 AND target_user_id = $1)
)
`

	var blocked bool
	if err := r.pool.QueryRow(ctx, query, userID, otherID).Scan(&blocked); err != nil {
		return false, fmt.Errorf("select block state: %w", err)
	}

	return blocked, nil
}
