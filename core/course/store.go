package course

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	INSERT INTO courses
		(course_id, name, description, image_url, price, published, instructor_id, created_at, updated_at)
	VALUES
		(:course_id, :name, :description, :image_url, :price, :published, :instructor_id, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	UPDATE courses SET
		name = :name,
		description = :description,
		image_url = :image_url,
		price = :price,
		published = :published,
		updated_at = :updated_at,
		version = version + 1
	WHERE course_id = :course_id AND version = :version`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("updating course[%s]: %w", c.ID, err)
	}

	return nil
}

// Archive soft deletes the course. Existing enrollments keep their
// access; the course simply stops being purchasable.
func Archive(ctx context.Context, db sqlx.ExtContext, id string, now time.Time) error {
	const q = `UPDATE courses SET deleted_at = $2, updated_at = $2 WHERE course_id = $1 AND deleted_at IS NULL`

	if _, err := db.ExecContext(ctx, q, id, now); err != nil {
		return fmt.Errorf("archiving course[%s]: %w", id, err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	const q = `SELECT * FROM courses WHERE course_id = $1`

	var c Course
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		return Course{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}

	return c, nil
}

// FetchAll returns the catalog as visible to buyers: published and
// not archived.
func FetchAll(ctx context.Context, db sqlx.ExtContext) ([]Course, error) {
	const q = `SELECT * FROM courses WHERE published AND deleted_at IS NULL ORDER BY created_at DESC`

	cs := []Course{}
	if err := sqlx.SelectContext(ctx, db, &cs, q); err != nil {
		return nil, fmt.Errorf("selecting courses: %w", err)
	}

	return cs, nil
}

func FetchByInstructor(ctx context.Context, db sqlx.ExtContext, instructorID string) ([]Course, error) {
	const q = `SELECT * FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC`

	cs := []Course{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, instructorID); err != nil {
		return nil, fmt.Errorf("selecting courses of instructor[%s]: %w", instructorID, err)
	}

	return cs, nil
}

// FetchOwned returns the courses the user is enrolled in with access
// still granted.
func FetchOwned(ctx context.Context, db sqlx.ExtContext, userID string) ([]Course, error) {
	const q = `
	SELECT c.* FROM courses AS c
	JOIN enrollments AS e ON e.course_id = c.course_id
	WHERE e.user_id = $1 AND e.status IN ('active', 'completed')
	ORDER BY c.created_at DESC`

	cs := []Course{}
	if err := sqlx.SelectContext(ctx, db, &cs, q, userID); err != nil {
		return nil, fmt.Errorf("selecting courses owned by user[%s]: %w", userID, err)
	}

	return cs, nil
}
