package video

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, v Video) error {
	const q = `
	INSERT INTO videos
		(video_id, course_id, index, name, description, free, url, image_url, created_at, updated_at)
	VALUES
		(:video_id, :course_id, :index, :name, :description, :free, :url, :image_url, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, v); err != nil {
		return fmt.Errorf("inserting video: %w", err)
	}

	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, v Video) error {
	const q = `
	UPDATE videos SET
		index = :index,
		name = :name,
		description = :description,
		free = :free,
		url = :url,
		image_url = :image_url,
		updated_at = :updated_at,
		version = version + 1
	WHERE video_id = :video_id AND version = :version`

	if _, err := sqlx.NamedExecContext(ctx, db, q, v); err != nil {
		return fmt.Errorf("updating video[%s]: %w", v.ID, err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Video, error) {
	const q = `SELECT * FROM videos WHERE video_id = $1`

	var v Video
	if err := sqlx.GetContext(ctx, db, &v, q, id); err != nil {
		return Video{}, fmt.Errorf("selecting video[%s]: %w", id, err)
	}

	return v, nil
}

func FetchByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) ([]Video, error) {
	const q = `SELECT * FROM videos WHERE course_id = $1 ORDER BY index`

	vs := []Video{}
	if err := sqlx.SelectContext(ctx, db, &vs, q, courseID); err != nil {
		return nil, fmt.Errorf("selecting videos of course[%s]: %w", courseID, err)
	}

	return vs, nil
}

func UpsertProgress(ctx context.Context, db sqlx.ExtContext, p Progress) error {
	const q = `
	INSERT INTO videos_progress
		(video_id, user_id, progress, created_at, updated_at)
	VALUES
		(:video_id, :user_id, :progress, :created_at, :updated_at)
	ON CONFLICT (video_id, user_id) DO UPDATE SET
		progress = GREATEST(videos_progress.progress, EXCLUDED.progress),
		updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("upserting progress: %w", err)
	}

	return nil
}

func FetchProgressByCourse(ctx context.Context, db sqlx.ExtContext, userID string, courseID string) ([]Progress, error) {
	const q = `
	SELECT p.* FROM videos_progress AS p
	JOIN videos AS v ON v.video_id = p.video_id
	WHERE p.user_id = $1 AND v.course_id = $2`

	ps := []Progress{}
	if err := sqlx.SelectContext(ctx, db, &ps, q, userID, courseID); err != nil {
		return nil, fmt.Errorf("selecting progress of user[%s] in course[%s]: %w", userID, courseID, err)
	}

	return ps, nil
}
