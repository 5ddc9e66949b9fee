package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dottenv/dating-bot/internal/domain/enums"
	"github.com/dottenv/dating-bot/internal/domain/model"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Get(ctx context.Context, userID int64) (model.Profile, error) {
	if r.pool == nil {
		return model.Profile{}, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return model.Profile{}, fmt.Errorf("invalid user id")
	}

	const query = `
SELECT
	user_id,
	display_name,
	age,
	city,
	bio,
	tags,
	gender,
	orientation,
	goal,
	rating,
	is_active,
	completed
FROM profiles
WHERE user_id = $1
`

	var (
		p           model.Profile
		gender      string
		orientation string
		goal        string
	)
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.DisplayName,
		&p.Age,
		&p.City,
		&p.Bio,
		&p.Tags,
		&gender,
		&orientation,
		&goal,
		&p.Rating,
		&p.IsActive,
		&p.Completed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return model.Profile{}, fmt.Errorf("select profile: %w", err)
	}

	p.Gender = enums.Gender(gender)
	p.Orientation = enums.Orientation(orientation)
	p.Goal = enums.DatingGoal(goal)

	return p, nil
}

// AdjustRating shifts the user's rating by delta and returns the stored
// value. The rating is clamped to [0, 1000] at the database level so
// concurrent adjustments cannot escape the band.
func (r *ProfileRepo) AdjustRating(ctx context.Context, userID int64, delta int) (int, error) {
	if r.pool == nil {
		return 0, fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return 0, fmt.Errorf("invalid user id")
	}

	const query = `
UPDATE profiles SET
	rating = LEAST(1000, GREATEST(0, rating + $2)),
	updated_at = NOW()
WHERE user_id = $1
RETURNING rating
`

	var rating int
	err := r.pool.QueryRow(ctx, query, userID, delta).Scan(&rating)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProfileNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("adjust profile rating: %w", err)
	}

	return rating, nil
}

func (r *ProfileRepo) SetActive(ctx context.Context, userID int64, active bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if userID <= 0 {
		return fmt.Errorf("invalid user id")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE profiles SET
	is_active = $2,
	updated_at = NOW()
WHERE user_id = $1
`, userID, active)
	if err != nil {
		return fmt.Errorf("set profile active flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}
