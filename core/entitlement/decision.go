package entitlement

// Code identifies why a purchase was denied. Codes are stable,
// machine-readable values surfaced to clients next to the
// human-readable reason.
type Code string

const (
	CodeCourseNotFound     Code = "COURSE_NOT_FOUND"
	CodeCourseArchived     Code = "COURSE_ARCHIVED"
	CodeCourseNotPublished Code = "COURSE_NOT_PUBLISHED"
	CodeCourseFree         Code = "COURSE_FREE"
	CodeOwnCourse          Code = "OWN_COURSE"
	CodeAlreadyEnrolled    Code = "ALREADY_ENROLLED"
	CodeInternalError      Code = "INTERNAL_ERROR"
)

var reasons = map[Code]string{
	CodeCourseNotFound:     "the course could not be found",
	CodeCourseArchived:     "the course is no longer available",
	CodeCourseNotPublished: "the course has not been published yet",
	CodeCourseFree:         "the course is not for sale",
	CodeOwnCourse:          "instructors cannot purchase their own course",
	CodeAlreadyEnrolled:    "the course is already owned",
	CodeInternalError:      "the purchase could not be evaluated, try again later",
}

// Decision is the result of a single eligibility evaluation. It is
// built fresh on every call and never cached: course and enrollment
// state may change between requests.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Code    Code   `json:"errorCode,omitempty"`
}

func denied(code Code) Decision {
	return Decision{Reason: reasons[code], Code: code}
}

// CartDecision partitions a cart evaluation. Every requested course
// lands in exactly one of the two lists; one ineligible item never
// blocks the evaluation of the rest.
type CartDecision struct {
	Valid   []string   `json:"valid"`
	Invalid []CartItem `json:"invalid"`
}

type CartItem struct {
	CourseID string `json:"courseId"`
	Reason   string `json:"reason"`
	Code     Code   `json:"errorCode"`
}
