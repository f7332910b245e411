package entitlement

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rahmanfadhil/eduvod/core/claims"
	"github.com/rahmanfadhil/eduvod/core/subscription"
)

func subRow(userID string, family subscription.RoleFamily, plan string, status subscription.Status) subscription.Subscription {
	return subscription.Subscription{
		UserID: userID,
		Role:   family,
		Plan:   plan,
		Status: status,
	}
}

func TestResolveFeatures(t *testing.T) {
	fs := &fakeStores{
		subscriptions: map[[2]string]subscription.Subscription{
			{"t-basic", "TEACHER"}:     subRow("t-basic", subscription.FamilyTeacher, subscription.PlanBasic, subscription.StatusActive),
			{"t-premium", "TEACHER"}:   subRow("t-premium", subscription.FamilyTeacher, subscription.PlanPremium, subscription.StatusActive),
			{"t-trial", "TEACHER"}:     subRow("t-trial", subscription.FamilyTeacher, subscription.PlanEnterprise, subscription.StatusTrial),
			{"t-cancelled", "TEACHER"}: subRow("t-cancelled", subscription.FamilyTeacher, subscription.PlanPremium, subscription.StatusCancelled),
			{"t-unknown", "TEACHER"}:   subRow("t-unknown", subscription.FamilyTeacher, "platinum", subscription.StatusActive),
			{"s-premium", "STUDENT"}:   subRow("s-premium", subscription.FamilyStudent, subscription.PlanPremium, subscription.StatusActive),
			{"s-trial", "STUDENT"}:     subRow("s-trial", subscription.FamilyStudent, subscription.PlanPremium, subscription.StatusTrial),
		},
	}

	eng := newTestEngine(fs)
	ctx := context.Background()

	tests := []struct {
		name   string
		userID string
		role   string
		want   []Feature
	}{
		{"admin gets everything without a subscription", "root", claims.RoleAdmin, AllFeatures()},
		{"teacher without subscription gets nothing", "t-none", claims.RoleTeacher, []Feature{}},
		{"teacher basic", "t-basic", claims.RoleTeacher, []Feature{FeatureCoursePublishing, FeatureBasicAnalytics}},
		{"teacher premium", "t-premium", claims.RoleTeacher, []Feature{
			FeatureCoursePublishing, FeatureBasicAnalytics, FeatureLiveSessions, FeatureCourseCoupons,
		}},
		{"teacher trial counts as active", "t-trial", claims.RoleTeacher, []Feature{
			FeatureCoursePublishing, FeatureBasicAnalytics, FeatureLiveSessions, FeatureCourseCoupons,
			FeatureAPIAccess, FeatureCustomBranding,
		}},
		{"cancelled subscription grants nothing", "t-cancelled", claims.RoleTeacher, []Feature{}},
		{"unknown plan grants nothing", "t-unknown", claims.RoleTeacher, []Feature{}},
		{"student premium", "s-premium", claims.RoleStudent, []Feature{
			FeatureOfflineViewing, FeatureCertificates, FeaturePrioritySupport,
		}},
		{"student trial does not count", "s-trial", claims.RoleStudent, []Feature{}},
		{"unknown role gets nothing", "t-premium", "SUPPORT", []Feature{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := eng.ResolveFeatures(ctx, tt.userID, tt.role)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("unexpected features (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResolveFeaturesClamp(t *testing.T) {
	// Sneak a student-only feature into a teacher plan to simulate a
	// bug in the tier tables: the role matrix must strip it.
	orig := teacherPlans[subscription.PlanBasic]
	teacherPlans[subscription.PlanBasic] = append([]Feature{FeatureCertificates}, orig...)
	defer func() { teacherPlans[subscription.PlanBasic] = orig }()

	fs := &fakeStores{
		subscriptions: map[[2]string]subscription.Subscription{
			{"t-basic", "TEACHER"}: subRow("t-basic", subscription.FamilyTeacher, subscription.PlanBasic, subscription.StatusActive),
		},
	}

	eng := newTestEngine(fs)

	got, err := eng.ResolveFeatures(context.Background(), "t-basic", claims.RoleTeacher)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Feature{FeatureCoursePublishing, FeatureBasicAnalytics}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("clamp failed to drop the unauthorized feature (-want +got):\n%s", diff)
	}
}

func TestResolveFeaturesStoreFault(t *testing.T) {
	eng := newTestEngine(&fakeStores{fail: true})

	if _, err := eng.ResolveFeatures(context.Background(), "t-basic", claims.RoleTeacher); err == nil {
		t.Fatal("expected an error when the subscription store fails")
	}
}

func TestHasFeature(t *testing.T) {
	fs := &fakeStores{
		subscriptions: map[[2]string]subscription.Subscription{
			{"t-basic", "TEACHER"}: subRow("t-basic", subscription.FamilyTeacher, subscription.PlanBasic, subscription.StatusActive),
		},
	}

	eng := newTestEngine(fs)
	ctx := context.Background()

	ok, err := eng.HasFeature(ctx, "t-basic", claims.RoleTeacher, FeatureCoursePublishing)
	if err != nil || !ok {
		t.Fatalf("expected feature to be held, got ok=%v err=%v", ok, err)
	}

	ok, err = eng.HasFeature(ctx, "t-basic", claims.RoleTeacher, FeatureLiveSessions)
	if err != nil || ok {
		t.Fatalf("expected feature to be missing, got ok=%v err=%v", ok, err)
	}
}
