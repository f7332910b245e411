package subscription

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Upsert writes the single subscription row a user may hold per role
// family.
func Upsert(ctx context.Context, db sqlx.ExtContext, s Subscription) error {
	const q = `
	INSERT INTO subscriptions
		(user_id, role, plan, status, created_at, updated_at)
	VALUES
		(:user_id, :role, :plan, :status, :created_at, :updated_at)
	ON CONFLICT (user_id, role) DO UPDATE SET
		plan = EXCLUDED.plan,
		status = EXCLUDED.status,
		updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, s); err != nil {
		return fmt.Errorf("upserting subscription: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string, family RoleFamily) (Subscription, error) {
	const q = `SELECT * FROM subscriptions WHERE user_id = $1 AND role = $2`

	var s Subscription
	if err := sqlx.GetContext(ctx, db, &s, q, userID, family); err != nil {
		return Subscription{}, fmt.Errorf("selecting subscription[%s,%s]: %w", userID, family, err)
	}

	return s, nil
}
