package models

import "time"

// CourseStatus is the course lifecycle state.
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// CourseLevel is the difficulty level of a course.
type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

// CourseCategories is the closed set of accepted categories.
var CourseCategories = []string{
	"Web Development",
	"Mobile Development",
	"Data Science",
	"Machine Learning",
	"DevOps",
	"Design",
	"Business",
	"Marketing",
	"Other",
}

// ValidCategory reports whether the category belongs to the closed set.
func ValidCategory(category string) bool {
	for _, c := range CourseCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Course represents a course stored in the courses table. InstructorID is
// immutable after creation. EnrollmentCount and Rating are derived values.
type Course struct {
	ID              string       `db:"id" json:"id"`
	Title           string       `db:"title" json:"title"`
	Description     string       `db:"description" json:"description"`
	InstructorID    string       `db:"instructor_id" json:"instructor_id"`
	Category        string       `db:"category" json:"category"`
	Price           float64      `db:"price" json:"price"`
	Thumbnail       *string      `db:"thumbnail" json:"thumbnail,omitempty"`
	Duration        int          `db:"duration" json:"duration"`
	Level           CourseLevel  `db:"level" json:"level"`
	Status          CourseStatus `db:"status" json:"status"`
	EnrollmentCount int          `db:"enrollment_count" json:"enrollment_count"`
	Rating          float64      `db:"rating" json:"rating"`
	Tags            StringList   `db:"tags" json:"tags"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseDetail joins a course with its instructor's public fields.
type CourseDetail struct {
	Course
	InstructorName   string  `db:"instructor_name" json:"instructor_name"`
	InstructorEmail  string  `db:"instructor_email" json:"instructor_email"`
	InstructorAvatar *string `db:"instructor_avatar" json:"instructor_avatar,omitempty"`
}

// CourseSummary is the condensed course shape used on instructor profiles.
type CourseSummary struct {
	ID              string  `db:"id" json:"id"`
	Title           string  `db:"title" json:"title"`
	Thumbnail       *string `db:"thumbnail" json:"thumbnail,omitempty"`
	Rating          float64 `db:"rating" json:"rating"`
	EnrollmentCount int     `db:"enrollment_count" json:"enrollment_count"`
}

// Review is a single course review. One per (course, user), enforced in
// application logic.
type Review struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ReviewDetail joins a review with the reviewer's public fields.
type ReviewDetail struct {
	Review
	UserName   string  `db:"user_name" json:"user_name"`
	UserAvatar *string `db:"user_avatar" json:"user_avatar,omitempty"`
}

// CourseView is the full course detail payload: the course with its
// instructor, reviews and ordered lesson summaries.
type CourseView struct {
	Course  CourseDetail    `json:"course"`
	Lessons []LessonSummary `json:"lessons"`
	Reviews []ReviewDetail  `json:"reviews"`
}

// CourseFilter captures filtering criteria for the course catalogue.
type CourseFilter struct {
	Category string
	Level    string
	Status   string
	Search   string
	Page     int
	PageSize int
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Title       string      `json:"title" validate:"required,min=5,max=100"`
	Description string      `json:"description" validate:"required,min=20,max=2000"`
	Category    string      `json:"category" validate:"required"`
	Price       float64     `json:"price" validate:"gte=0"`
	Thumbnail   *string     `json:"thumbnail" validate:"omitempty,url"`
	Duration    int         `json:"duration" validate:"required,gte=1"`
	Level       CourseLevel `json:"level" validate:"required,oneof=beginner intermediate advanced"`
	Tags        []string    `json:"tags"`
}

// UpdateCourseRequest carries the mutable course fields; absent fields are
// left untouched. The owning instructor can never change.
type UpdateCourseRequest struct {
	Title       *string      `json:"title" validate:"omitempty,min=5,max=100"`
	Description *string      `json:"description" validate:"omitempty,min=20,max=2000"`
	Category    *string      `json:"category"`
	Price       *float64     `json:"price" validate:"omitempty,gte=0"`
	Thumbnail   *string      `json:"thumbnail" validate:"omitempty,url"`
	Duration    *int         `json:"duration" validate:"omitempty,gte=1"`
	Level       *CourseLevel `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Tags        []string     `json:"tags"`
}

// AddReviewRequest is the payload for posting a course review.
type AddReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,gte=1,lte=5"`
	Comment *string `json:"comment" validate:"omitempty,max=500"`
}
