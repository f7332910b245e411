package entitlement

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rahmanfadhil/eduvod/core/claims"
	"github.com/rahmanfadhil/eduvod/core/course"
	"github.com/rahmanfadhil/eduvod/core/enrollment"
	"github.com/rahmanfadhil/eduvod/core/subscription"
	"github.com/sirupsen/logrus"
)

type fakeStores struct {
	courses       map[string]course.Course
	enrollments   map[[2]string]enrollment.Enrollment
	subscriptions map[[2]string]subscription.Subscription
	fail          bool
}

func (f *fakeStores) FetchCourse(ctx context.Context, courseID string) (course.Course, bool, error) {
	if f.fail {
		return course.Course{}, false, errors.New("store unavailable")
	}
	c, ok := f.courses[courseID]
	return c, ok, nil
}

func (f *fakeStores) FetchEnrollment(ctx context.Context, userID string, courseID string) (enrollment.Enrollment, bool, error) {
	if f.fail {
		return enrollment.Enrollment{}, false, errors.New("store unavailable")
	}
	e, ok := f.enrollments[[2]string{userID, courseID}]
	return e, ok, nil
}

func (f *fakeStores) FetchSubscription(ctx context.Context, userID string, family subscription.RoleFamily) (subscription.Subscription, bool, error) {
	if f.fail {
		return subscription.Subscription{}, false, errors.New("store unavailable")
	}
	s, ok := f.subscriptions[[2]string{userID, string(family)}]
	return s, ok, nil
}

func newTestEngine(f *fakeStores) *Engine {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(log, f, f, f)
}

func sellable(id string, instructor string) course.Course {
	return course.Course{
		ID:           id,
		Name:         "test course " + id,
		Price:        100,
		Published:    true,
		InstructorID: instructor,
	}
}

func TestEvaluatePurchase(t *testing.T) {
	now := time.Now().UTC()

	archived := sellable("archived", "T1")
	archived.DeletedAt = &now

	unpublished := sellable("unpublished", "T1")
	unpublished.Published = false

	// An archived course reports as archived whatever else is wrong
	// with it: rules run in order and stop at the first failure.
	archivedDraft := sellable("archived-draft", "T1")
	archivedDraft.DeletedAt = &now
	archivedDraft.Published = false
	archivedDraft.Price = 0

	free := sellable("free", "T1")
	free.Price = 0

	misconfigured := sellable("misconfigured", "T1")
	misconfigured.Price = -5

	fs := &fakeStores{
		courses: map[string]course.Course{
			"A":              sellable("A", "T1"),
			"archived":       archived,
			"unpublished":    unpublished,
			"archived-draft": archivedDraft,
			"free":           free,
			"misconfigured":  misconfigured,
		},
		enrollments: map[[2]string]enrollment.Enrollment{
			{"S2", "A"}: {UserID: "S2", CourseID: "A", Status: enrollment.Active},
			{"S3", "A"}: {UserID: "S3", CourseID: "A", Status: enrollment.Cancelled},
		},
	}

	eng := newTestEngine(fs)
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   string
		courseID string
		want     Decision
	}{
		{"allowed", "S1", "A", Decision{Allowed: true}},
		{"missing course", "S1", "nope", denied(CodeCourseNotFound)},
		{"archived course", "S1", "archived", denied(CodeCourseArchived)},
		{"unpublished course", "S1", "unpublished", denied(CodeCourseNotPublished)},
		{"archived wins over unpublished and free", "S1", "archived-draft", denied(CodeCourseArchived)},
		{"free course", "S1", "free", denied(CodeCourseFree)},
		{"negative price", "S1", "misconfigured", denied(CodeCourseFree)},
		{"own course", "T1", "A", denied(CodeOwnCourse)},
		{"own unpublished course reports availability", "T1", "unpublished", denied(CodeCourseNotPublished)},
		{"already enrolled", "S2", "A", denied(CodeAlreadyEnrolled)},
		{"cancelled enrollment still blocks", "S3", "A", denied(CodeAlreadyEnrolled)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eng.EvaluatePurchase(ctx, tt.userID, tt.courseID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected decision (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEvaluatePurchaseIdempotent(t *testing.T) {
	fs := &fakeStores{courses: map[string]course.Course{"A": sellable("A", "T1")}}
	eng := newTestEngine(fs)
	ctx := context.Background()

	first := eng.EvaluatePurchase(ctx, "S1", "A")
	second := eng.EvaluatePurchase(ctx, "S1", "A")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("two evaluations without state change differ (-first +second):\n%s", diff)
	}

	// The same call after an enrollment appears flips to a denial.
	fs.enrollments = map[[2]string]enrollment.Enrollment{
		{"S1", "A"}: {UserID: "S1", CourseID: "A", Status: enrollment.Active},
	}

	got := eng.EvaluatePurchase(ctx, "S1", "A")
	if diff := cmp.Diff(denied(CodeAlreadyEnrolled), got); diff != "" {
		t.Fatalf("unexpected decision after enrolling (-want +got):\n%s", diff)
	}
}

func TestEvaluatePurchaseFailsClosed(t *testing.T) {
	fs := &fakeStores{fail: true}
	eng := newTestEngine(fs)

	got := eng.EvaluatePurchase(context.Background(), "S1", "A")
	if got.Allowed {
		t.Fatal("engine allowed a purchase while the stores were failing")
	}
	if got.Code != CodeInternalError {
		t.Fatalf("expected code %s, got %s", CodeInternalError, got.Code)
	}
}

func TestEvaluateCart(t *testing.T) {
	now := time.Now().UTC()
	archived := sellable("archived", "T1")
	archived.DeletedAt = &now

	fs := &fakeStores{
		courses: map[string]course.Course{
			"A":        sellable("A", "T1"),
			"B":        sellable("B", "T2"),
			"archived": archived,
		},
		enrollments: map[[2]string]enrollment.Enrollment{
			{"S1", "B"}: {UserID: "S1", CourseID: "B", Status: enrollment.Active},
		},
	}

	eng := newTestEngine(fs)
	ctx := context.Background()

	ids := []string{"A", "B", "archived", "nope"}
	got := eng.EvaluateCart(ctx, "S1", ids)

	want := CartDecision{
		Valid: []string{"A"},
		Invalid: []CartItem{
			{CourseID: "B", Reason: reasons[CodeAlreadyEnrolled], Code: CodeAlreadyEnrolled},
			{CourseID: "archived", Reason: reasons[CodeCourseArchived], Code: CodeCourseArchived},
			{CourseID: "nope", Reason: reasons[CodeCourseNotFound], Code: CodeCourseNotFound},
		},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected cart decision (-want +got):\n%s", diff)
	}

	if len(got.Valid)+len(got.Invalid) != len(ids) {
		t.Fatalf("expected %d partitioned results, got %d", len(ids), len(got.Valid)+len(got.Invalid))
	}

	// Each item must match its standalone evaluation.
	for _, id := range ids {
		single := eng.EvaluatePurchase(ctx, "S1", id)
		inValid := false
		for _, v := range got.Valid {
			if v == id {
				inValid = true
			}
		}
		if single.Allowed != inValid {
			t.Fatalf("cart and standalone evaluation disagree for course[%s]", id)
		}
	}
}

func TestEvaluateCartEmpty(t *testing.T) {
	eng := newTestEngine(&fakeStores{})

	got := eng.EvaluateCart(context.Background(), "S1", nil)
	if len(got.Valid) != 0 || len(got.Invalid) != 0 {
		t.Fatalf("expected empty partitions, got %+v", got)
	}
	if got.Valid == nil || got.Invalid == nil {
		t.Fatal("partitions must be non-nil so they serialize as JSON arrays")
	}
}

func TestCanAccess(t *testing.T) {
	now := time.Now().UTC()
	archived := sellable("archived", "T1")
	archived.DeletedAt = &now

	fs := &fakeStores{
		courses: map[string]course.Course{
			"A":        sellable("A", "T1"),
			"archived": archived,
		},
		enrollments: map[[2]string]enrollment.Enrollment{
			{"S1", "A"}: {UserID: "S1", CourseID: "A", Status: enrollment.Active},
			{"S2", "A"}: {UserID: "S2", CourseID: "A", Status: enrollment.Cancelled},
			{"S4", "A"}: {UserID: "S4", CourseID: "A", Status: enrollment.Completed},
		},
	}

	eng := newTestEngine(fs)
	ctx := context.Background()

	tests := []struct {
		name     string
		userID   string
		role     string
		courseID string
		want     bool
	}{
		{"active enrollment grants access", "S1", claims.RoleStudent, "A", true},
		{"completed enrollment grants access", "S4", claims.RoleStudent, "A", true},
		{"cancelled enrollment does not", "S2", claims.RoleStudent, "A", false},
		{"no enrollment", "S3", claims.RoleStudent, "A", false},
		{"instructor always accesses own course", "T1", claims.RoleTeacher, "archived", true},
		{"admin always has access", "root", claims.RoleAdmin, "A", true},
		{"missing course", "S1", claims.RoleStudent, "nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eng.CanAccess(ctx, tt.userID, tt.role, tt.courseID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
