package subscription

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusTrial     Status = "trial"
	StatusInactive  Status = "inactive"
	StatusCancelled Status = "cancelled"
)

// RoleFamily scopes a subscription to one side of the platform.
// Teacher and student subscriptions are disjoint rows; a user holds
// at most one per family.
type RoleFamily string

const (
	FamilyTeacher RoleFamily = "TEACHER"
	FamilyStudent RoleFamily = "STUDENT"
)

const (
	PlanFree       = "free"
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

type Subscription struct {
	UserID    string     `json:"userId" db:"user_id"`
	Role      RoleFamily `json:"role" db:"role"`
	Plan      string     `json:"plan" db:"plan"`
	Status    Status     `json:"status" db:"status"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
}

type SubscriptionUp struct {
	UserID string `json:"userId" validate:"required,uuid4"`
	Role   string `json:"role" validate:"required,oneof=TEACHER STUDENT"`
	Plan   string `json:"plan" validate:"required,oneof=free basic premium enterprise"`
	Status string `json:"status" validate:"required,oneof=active trial inactive cancelled"`
}

// Entitles reports whether the subscription grants its plan's
// features. Trial counts for teachers only.
func (s Subscription) Entitles() bool {
	if s.Status == StatusActive {
		return true
	}
	return s.Status == StatusTrial && s.Role == FamilyTeacher
}
