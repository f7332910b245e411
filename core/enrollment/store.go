package enrollment

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, e Enrollment) error {
	const q = `
	INSERT INTO enrollments
		(user_id, course_id, status, created_at, updated_at)
	VALUES
		(:user_id, :course_id, :status, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, e); err != nil {
		return fmt.Errorf("inserting enrollment: %w", err)
	}

	return nil
}

func UpdateStatus(ctx context.Context, db sqlx.ExtContext, e Enrollment) error {
	const q = `
	UPDATE enrollments SET status = :status, updated_at = :updated_at
	WHERE user_id = :user_id AND course_id = :course_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, e); err != nil {
		return fmt.Errorf("updating enrollment[%s,%s]: %w", e.UserID, e.CourseID, err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) (Enrollment, error) {
	const q = `SELECT * FROM enrollments WHERE user_id = $1 AND course_id = $2`

	var e Enrollment
	if err := sqlx.GetContext(ctx, db, &e, q, userID, courseID); err != nil {
		return Enrollment{}, fmt.Errorf("selecting enrollment[%s,%s]: %w", userID, courseID, err)
	}

	return e, nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Enrollment, error) {
	const q = `SELECT * FROM enrollments WHERE user_id = $1 ORDER BY created_at DESC`

	es := []Enrollment{}
	if err := sqlx.SelectContext(ctx, db, &es, q, userID); err != nil {
		return nil, fmt.Errorf("selecting enrollments of user[%s]: %w", userID, err)
	}

	return es, nil
}
