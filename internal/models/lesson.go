package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ResourceType classifies a lesson resource.
type ResourceType string

const (
	ResourcePDF   ResourceType = "pdf"
	ResourceVideo ResourceType = "video"
	ResourceLink  ResourceType = "link"
)

// LessonResource is a supplementary material attached to a lesson.
type LessonResource struct {
	Title string       `json:"title"`
	URL   string       `json:"url"`
	Type  ResourceType `json:"type"`
}

// LessonResources is the JSONB-backed resource list.
type LessonResources []LessonResource

// Value implements driver.Valuer.
func (r LessonResources) Value() (driver.Value, error) {
	if r == nil {
		r = LessonResources{}
	}
	return json.Marshal(r)
}

// Scan implements sql.Scanner.
func (r *LessonResources) Scan(src interface{}) error {
	if src == nil {
		*r = LessonResources{}
		return nil
	}
	raw, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("lesson resources: unsupported source type %T", src)
	}
	return json.Unmarshal(raw, r)
}

// Lesson belongs to exactly one course. Order defines the display and
// progress sequence; uniqueness within a course is not enforced.
type Lesson struct {
	ID        string          `db:"id" json:"id"`
	CourseID  string          `db:"course_id" json:"course_id"`
	Title     string          `db:"title" json:"title"`
	Content   string          `db:"content" json:"content"`
	VideoURL  *string         `db:"video_url" json:"video_url,omitempty"`
	Duration  int             `db:"duration" json:"duration"`
	Order     int             `db:"order" json:"order"`
	Resources LessonResources `db:"resources" json:"resources"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// LessonSummary is the condensed lesson shape embedded in course detail.
type LessonSummary struct {
	ID       string `db:"id" json:"id"`
	Title    string `db:"title" json:"title"`
	Duration int    `db:"duration" json:"duration"`
	Order    int    `db:"order" json:"order"`
}

// CreateLessonRequest is the payload for adding a lesson to a course.
type CreateLessonRequest struct {
	Title     string           `json:"title" validate:"required,max=100"`
	Content   string           `json:"content" validate:"required"`
	VideoURL  *string          `json:"video_url" validate:"omitempty,url"`
	Duration  int              `json:"duration" validate:"required,gte=1"`
	Order     int              `json:"order" validate:"required,gte=1"`
	Resources []LessonResource `json:"resources" validate:"omitempty,dive"`
}

// UpdateLessonRequest carries the mutable lesson fields.
type UpdateLessonRequest struct {
	Title     *string          `json:"title" validate:"omitempty,max=100"`
	Content   *string          `json:"content"`
	VideoURL  *string          `json:"video_url" validate:"omitempty,url"`
	Duration  *int             `json:"duration" validate:"omitempty,gte=1"`
	Order     *int             `json:"order" validate:"omitempty,gte=1"`
	Resources []LessonResource `json:"resources" validate:"omitempty,dive"`
}
