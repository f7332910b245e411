// Package entitlement decides whether a user may purchase or access a
// course and which paid platform features they hold. It only ever
// reads: enrollments are written by order fulfillment, courses by the
// catalog handlers. The engine is an advisory gate, not a lock;
// exactly-once purchase is enforced by the unique constraint on
// enrollments at write time.
package entitlement

import (
	"context"

	"github.com/rahmanfadhil/eduvod/core/claims"
	"github.com/rahmanfadhil/eduvod/core/course"
	"github.com/rahmanfadhil/eduvod/core/enrollment"
	"github.com/rahmanfadhil/eduvod/core/subscription"
	"github.com/sirupsen/logrus"
)

// CourseStore reports a course's state. Absence is a normal outcome,
// signalled by the bool, not an error: errors are reserved for
// infrastructure faults.
type CourseStore interface {
	FetchCourse(ctx context.Context, courseID string) (course.Course, bool, error)
}

type EnrollmentStore interface {
	FetchEnrollment(ctx context.Context, userID string, courseID string) (enrollment.Enrollment, bool, error)
}

type SubscriptionStore interface {
	FetchSubscription(ctx context.Context, userID string, family subscription.RoleFamily) (subscription.Subscription, bool, error)
}

type Engine struct {
	log           logrus.FieldLogger
	courses       CourseStore
	enrollments   EnrollmentStore
	subscriptions SubscriptionStore
}

func New(log logrus.FieldLogger, courses CourseStore, enrollments EnrollmentStore, subscriptions SubscriptionStore) *Engine {
	return &Engine{
		log:           log,
		courses:       courses,
		enrollments:   enrollments,
		subscriptions: subscriptions,
	}
}

// EvaluatePurchase answers "can user U purchase course C right now?".
// Rules run in a fixed order and stop at the first failure, so the
// caller always gets one unambiguous reason. Ownership is checked
// after availability: an instructor probing their own archived course
// is told COURSE_ARCHIVED, not OWN_COURSE. Store faults deny with
// INTERNAL_ERROR; money-gating logic never fails open.
func (e *Engine) EvaluatePurchase(ctx context.Context, userID string, courseID string) Decision {
	c, ok, err := e.courses.FetchCourse(ctx, courseID)
	if err != nil {
		e.log.WithFields(logrus.Fields{"course_id": courseID, "message": err}).Error("eligibility: course lookup failed")
		return denied(CodeInternalError)
	}

	switch {
	case !ok:
		return denied(CodeCourseNotFound)
	case c.Archived():
		return denied(CodeCourseArchived)
	case !c.Published:
		return denied(CodeCourseNotPublished)
	case c.Price <= 0:
		return denied(CodeCourseFree)
	case c.InstructorID == userID:
		return denied(CodeOwnCourse)
	}

	// Any enrollment row blocks a repeat purchase, cancelled ones
	// included. Re-purchase after cancellation is done by removing
	// the row, not by filtering on status here.
	_, ok, err = e.enrollments.FetchEnrollment(ctx, userID, courseID)
	if err != nil {
		e.log.WithFields(logrus.Fields{"user_id": userID, "course_id": courseID, "message": err}).Error("eligibility: enrollment lookup failed")
		return denied(CodeInternalError)
	}
	if ok {
		return denied(CodeAlreadyEnrolled)
	}

	return Decision{Allowed: true}
}

// EvaluateCart evaluates every course independently; results for N
// requested courses always partition into valid+invalid of total N.
func (e *Engine) EvaluateCart(ctx context.Context, userID string, courseIDs []string) CartDecision {
	cd := CartDecision{
		Valid:   []string{},
		Invalid: []CartItem{},
	}

	for _, id := range courseIDs {
		d := e.EvaluatePurchase(ctx, userID, id)
		if d.Allowed {
			cd.Valid = append(cd.Valid, id)
			continue
		}

		cd.Invalid = append(cd.Invalid, CartItem{
			CourseID: id,
			Reason:   d.Reason,
			Code:     d.Code,
		})
	}

	return cd
}

// CanAccess is the content-access guard. Admins and the owning
// instructor always have access, availability aside; everyone else
// needs an enrollment that still grants it.
func (e *Engine) CanAccess(ctx context.Context, userID string, role string, courseID string) (bool, error) {
	if role == claims.RoleAdmin {
		return true, nil
	}

	c, ok, err := e.courses.FetchCourse(ctx, courseID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if c.InstructorID == userID {
		return true, nil
	}

	enr, ok, err := e.enrollments.FetchEnrollment(ctx, userID, courseID)
	if err != nil {
		return false, err
	}

	return ok && enr.Grants(), nil
}
