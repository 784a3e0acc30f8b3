package models

import "time"

// Enrollment binds one user to one course and tracks completion state. The
// (user, course) pair is unique at the storage layer.
type Enrollment struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	CourseID         string     `db:"course_id" json:"course_id"`
	Progress         int        `db:"progress" json:"progress"`
	CompletedLessons StringList `db:"completed_lessons" json:"completed_lessons"`
	EnrolledAt       time.Time  `db:"enrolled_at" json:"enrolled_at"`
	LastAccessedAt   time.Time  `db:"last_accessed_at" json:"last_accessed_at"`
	CompletedAt      *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// EnrollmentView pairs an enrollment with the full lesson list of its course,
// letting clients render per-lesson completion state.
type EnrollmentView struct {
	Enrollment Enrollment `json:"enrollment"`
	Lessons    []Lesson   `json:"lessons"`
}

// EnrollmentDetail joins an enrollment with course and instructor summaries.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle      string  `db:"course_title" json:"course_title"`
	CourseThumbnail  *string `db:"course_thumbnail" json:"course_thumbnail,omitempty"`
	CourseRating     float64 `db:"course_rating" json:"course_rating"`
	InstructorName   string  `db:"instructor_name" json:"instructor_name"`
	InstructorAvatar *string `db:"instructor_avatar" json:"instructor_avatar,omitempty"`
}
