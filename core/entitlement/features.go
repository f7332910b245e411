package entitlement

import (
	"context"
	"sort"

	"github.com/rahmanfadhil/eduvod/core/claims"
	"github.com/rahmanfadhil/eduvod/core/subscription"
	"github.com/sirupsen/logrus"
)

// Feature identifies a paid platform capability. Entitled features
// are always recomputed from the subscription row, never persisted.
type Feature string

const (
	FeatureCoursePublishing Feature = "course_publishing"
	FeatureBasicAnalytics   Feature = "basic_analytics"
	FeatureLiveSessions     Feature = "live_sessions"
	FeatureCourseCoupons    Feature = "course_coupons"
	FeatureAPIAccess        Feature = "api_access"
	FeatureCustomBranding   Feature = "custom_branding"
	FeatureOfflineViewing   Feature = "offline_viewing"
	FeatureCertificates     Feature = "certificates"
	FeaturePrioritySupport  Feature = "priority_support"
)

var teacherPlans = map[string][]Feature{
	subscription.PlanFree:  {},
	subscription.PlanBasic: {FeatureCoursePublishing, FeatureBasicAnalytics},
	subscription.PlanPremium: {
		FeatureCoursePublishing, FeatureBasicAnalytics,
		FeatureLiveSessions, FeatureCourseCoupons,
	},
	subscription.PlanEnterprise: {
		FeatureCoursePublishing, FeatureBasicAnalytics,
		FeatureLiveSessions, FeatureCourseCoupons,
		FeatureAPIAccess, FeatureCustomBranding,
	},
}

var studentPlans = map[string][]Feature{
	subscription.PlanFree:    {},
	subscription.PlanBasic:   {FeatureOfflineViewing},
	subscription.PlanPremium: {FeatureOfflineViewing, FeatureCertificates, FeaturePrioritySupport},
}

// roleFeatures is the static per-role authorization matrix. The plan
// tables above decide what a subscription grants; this matrix caps
// what a role may ever hold, whatever the tables say.
var roleFeatures = map[string]map[Feature]bool{
	claims.RoleTeacher: {
		FeatureCoursePublishing: true,
		FeatureBasicAnalytics:   true,
		FeatureLiveSessions:     true,
		FeatureCourseCoupons:    true,
		FeatureAPIAccess:        true,
		FeatureCustomBranding:   true,
	},
	claims.RoleStudent: {
		FeatureOfflineViewing:  true,
		FeatureCertificates:    true,
		FeaturePrioritySupport: true,
	},
}

// AllFeatures returns every known feature, sorted. Admins hold the
// full set unconditionally.
func AllFeatures() []Feature {
	fs := make([]Feature, 0)
	seen := make(map[Feature]bool)
	for _, m := range roleFeatures {
		for f := range m {
			if !seen[f] {
				seen[f] = true
				fs = append(fs, f)
			}
		}
	}
	sort.Slice(fs, func(i, j int) bool { return fs[i] < fs[j] })
	return fs
}

// ResolveFeatures computes the feature set a user currently holds.
// "Not subscribed" is a normal outcome and yields the empty set; an
// error is returned only for store faults. Unknown roles and unknown
// plan tiers resolve to the empty set rather than guessing.
func (e *Engine) ResolveFeatures(ctx context.Context, userID string, role string) ([]Feature, error) {
	if role == claims.RoleAdmin {
		return AllFeatures(), nil
	}

	var family subscription.RoleFamily
	var plans map[string][]Feature
	switch role {
	case claims.RoleTeacher:
		family = subscription.FamilyTeacher
		plans = teacherPlans
	case claims.RoleStudent:
		family = subscription.FamilyStudent
		plans = studentPlans
	default:
		return []Feature{}, nil
	}

	sub, ok, err := e.subscriptions.FetchSubscription(ctx, userID, family)
	if err != nil {
		return nil, err
	}
	if !ok || !sub.Entitles() {
		return []Feature{}, nil
	}

	granted, ok := plans[sub.Plan]
	if !ok {
		e.log.WithFields(logrus.Fields{
			"user_id": userID,
			"role":    role,
			"plan":    sub.Plan,
		}).Warn("entitlement: unknown subscription plan, granting nothing")
		return []Feature{}, nil
	}

	// Authorization clamp: a feature granted by the plan tables but
	// not permitted for the role is a sign of a bug upstream. Drop it
	// and flag it, never trust it.
	allowed := roleFeatures[role]
	fs := make([]Feature, 0, len(granted))
	for _, f := range granted {
		if !allowed[f] {
			e.log.WithFields(logrus.Fields{
				"user_id": userID,
				"role":    role,
				"plan":    sub.Plan,
				"feature": f,
			}).Warn("entitlement: feature not permitted for role, dropping")
			continue
		}
		fs = append(fs, f)
	}

	return fs, nil
}

// HasFeature reports whether the user's resolved feature set contains
// the given feature.
func (e *Engine) HasFeature(ctx context.Context, userID string, role string, feature Feature) (bool, error) {
	fs, err := e.ResolveFeatures(ctx, userID, role)
	if err != nil {
		return false, err
	}

	for _, f := range fs {
		if f == feature {
			return true, nil
		}
	}
	return false, nil
}
