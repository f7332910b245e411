package cart

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Upsert(ctx context.Context, db sqlx.ExtContext, c Cart) error {
	const q = `
	INSERT INTO carts
		(user_id, created_at, updated_at)
	VALUES
		(:user_id, :created_at, :updated_at)
	ON CONFLICT (user_id) DO UPDATE SET
		updated_at = EXCLUDED.updated_at,
		version = carts.version + 1`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("upserting cart: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string) (Cart, error) {
	const q = `SELECT * FROM carts WHERE user_id = $1`

	var c Cart
	if err := sqlx.GetContext(ctx, db, &c, q, userID); err != nil {
		return Cart{}, fmt.Errorf("selecting cart of user[%s]: %w", userID, err)
	}

	return c, nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM carts WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("deleting cart of user[%s]: %w", userID, err)
	}

	return nil
}

func CreateItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO cart_items
		(user_id, course_id, created_at, updated_at)
	VALUES
		(:user_id, :course_id, :created_at, :updated_at)
	ON CONFLICT (user_id, course_id) DO UPDATE SET
		updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("inserting cart item: %w", err)
	}

	return nil
}

func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND course_id = $2`

	if _, err := db.ExecContext(ctx, q, userID, courseID); err != nil {
		return fmt.Errorf("deleting cart item[%s,%s]: %w", userID, courseID, err)
	}

	return nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 ORDER BY created_at`

	its := []Item{}
	if err := sqlx.SelectContext(ctx, db, &its, q, userID); err != nil {
		return nil, fmt.Errorf("selecting cart items of user[%s]: %w", userID, err)
	}

	return its, nil
}
