package enrollment

import "time"

type Status string

const (
	Active    Status = "active"
	Completed Status = "completed"
	Cancelled Status = "cancelled"
)

// Enrollment links a user to a course they purchased or joined. At
// most one row exists per (user, course) pair; the unique constraint
// on the table is what ultimately prevents double enrollment.
type Enrollment struct {
	UserID    string    `json:"userId" db:"user_id"`
	CourseID  string    `json:"courseId" db:"course_id"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Grants reports whether the enrollment currently grants content
// access. A cancelled enrollment keeps the row (it still blocks a
// repeat purchase) but no longer grants access.
func (e Enrollment) Grants() bool {
	return e.Status == Active || e.Status == Completed
}
