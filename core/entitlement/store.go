package entitlement

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/rahmanfadhil/eduvod/core/course"
	"github.com/rahmanfadhil/eduvod/core/enrollment"
	"github.com/rahmanfadhil/eduvod/core/subscription"
)

// Stores adapts the sqlx-backed packages to the engine's read-only
// store contracts, translating sql.ErrNoRows into plain absence.
type Stores struct {
	db *sqlx.DB
}

func NewStores(db *sqlx.DB) Stores {
	return Stores{db: db}
}

func (s Stores) FetchCourse(ctx context.Context, courseID string) (course.Course, bool, error) {
	c, err := course.Fetch(ctx, s.db, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return course.Course{}, false, nil
		}
		return course.Course{}, false, err
	}

	return c, true, nil
}

func (s Stores) FetchEnrollment(ctx context.Context, userID string, courseID string) (enrollment.Enrollment, bool, error) {
	e, err := enrollment.Fetch(ctx, s.db, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return enrollment.Enrollment{}, false, nil
		}
		return enrollment.Enrollment{}, false, err
	}

	return e, true, nil
}

func (s Stores) FetchSubscription(ctx context.Context, userID string, family subscription.RoleFamily) (subscription.Subscription, bool, error) {
	sub, err := subscription.Fetch(ctx, s.db, userID, family)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return subscription.Subscription{}, false, nil
		}
		return subscription.Subscription{}, false, err
	}

	return sub, true, nil
}
