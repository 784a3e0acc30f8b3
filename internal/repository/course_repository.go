package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/learnhub/learnhub-api/internal/models"
)

const courseColumns = `c.id, c.title, c.description, c.instructor_id, c.category, c.price, c.thumbnail, c.duration, c.level, c.status, c.enrollment_count, c.rating, c.tags, c.created_at, c.updated_at`

// CourseRepository provides database access for courses and their reviews.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository creates a new instance of CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now
	if course.Tags == nil {
		course.Tags = models.StringList{}
	}

	const query = `INSERT INTO courses (id, title, description, instructor_id, category, price, thumbnail, duration, level, status, enrollment_count, rating, tags, created_at, updated_at) VALUES (:id, :title, :description, :instructor_id, :category, :price, :thumbnail, :duration, :level, :status, :enrollment_count, :rating, :tags, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1 LIMIT 1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// FindDetailByID returns a course joined with its instructor's public fields.
func (r *CourseRepository) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	const query = `SELECT ` + courseColumns + `, u.name AS instructor_name, u.email AS instructor_email, u.avatar AS instructor_avatar FROM courses c JOIN users u ON u.id = c.instructor_id WHERE c.id = $1 LIMIT 1`
	var detail models.CourseDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course detail: %w", err)
	}
	return &detail, nil
}

// List returns courses matching the filter with a total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	baseQuery := `FROM courses c JOIN users u ON u.id = c.instructor_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("c.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Level != "" {
		conditions = append(conditions, fmt.Sprintf("c.level = $%d", len(args)+1))
		args = append(args, filter.Level)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("c.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(c.title ILIKE $%d OR c.description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT "+courseColumns+", u.name AS instructor_name, u.email AS instructor_email, u.avatar AS instructor_avatar %s ORDER BY c.created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// ListByInstructor returns an instructor's courses, newest first.
func (r *CourseRepository) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	const query = `SELECT ` + courseColumns + ` FROM courses c WHERE c.instructor_id = $1 ORDER BY c.created_at DESC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}

// SummariesByInstructor returns the condensed course list for a profile page.
func (r *CourseRepository) SummariesByInstructor(ctx context.Context, instructorID string) ([]models.CourseSummary, error) {
	const query = `SELECT id, title, thumbnail, rating, enrollment_count FROM courses WHERE instructor_id = $1 ORDER BY created_at DESC`
	var summaries []models.CourseSummary
	if err := r.db.SelectContext(ctx, &summaries, query, instructorID); err != nil {
		return nil, fmt.Errorf("list instructor course summaries: %w", err)
	}
	return summaries, nil
}

// Update updates the mutable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, category = :category, price = :price, thumbnail = :thumbnail, duration = :duration, level = :level, tags = :tags, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// UpdateStatus sets the course lifecycle status.
func (r *CourseRepository) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	const query = `UPDATE courses SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update course status: %w", err)
	}
	return nil
}

// IncrementEnrollmentCount adjusts the derived enrollment counter by delta in
// a single statement. No floor is applied.
func (r *CourseRepository) IncrementEnrollmentCount(ctx context.Context, id string, delta int) error {
	const query = `UPDATE courses SET enrollment_count = enrollment_count + $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment enrollment count: %w", err)
	}
	return nil
}

// UpdateRating sets the derived average rating.
func (r *CourseRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	const query = `UPDATE courses SET rating = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, rating, time.Now().UTC()); err != nil {
		return fmt.Errorf("update course rating: %w", err)
	}
	return nil
}

// Delete removes the course row itself. Related lessons, enrollments and
// reviews are removed explicitly by the caller beforehand.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}

// ListReviews returns a course's reviews with reviewer names.
func (r *CourseRepository) ListReviews(ctx context.Context, courseID string) ([]models.ReviewDetail, error) {
	const query = `SELECT rv.id, rv.course_id, rv.user_id, rv.rating, rv.comment, rv.created_at, u.name AS user_name, u.avatar AS user_avatar FROM course_reviews rv JOIN users u ON u.id = rv.user_id WHERE rv.course_id = $1 ORDER BY rv.created_at DESC`
	var reviews []models.ReviewDetail
	if err := r.db.SelectContext(ctx, &reviews, query, courseID); err != nil {
		return nil, fmt.Errorf("list course reviews: %w", err)
	}
	return reviews, nil
}

// FindReviewByUser returns a user's review on a course, if any.
func (r *CourseRepository) FindReviewByUser(ctx context.Context, courseID, userID string) (*models.Review, error) {
	const query = `SELECT id, course_id, user_id, rating, comment, created_at FROM course_reviews WHERE course_id = $1 AND user_id = $2 LIMIT 1`
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, courseID, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find review by user: %w", err)
	}
	return &review, nil
}

// CreateReview inserts a review.
func (r *CourseRepository) CreateReview(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_reviews (id, course_id, user_id, rating, comment, created_at) VALUES (:id, :course_id, :user_id, :rating, :comment, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// ListRatings returns all review ratings for a course.
func (r *CourseRepository) ListRatings(ctx context.Context, courseID string) ([]int, error) {
	const query = `SELECT rating FROM course_reviews WHERE course_id = $1`
	var ratings []int
	if err := r.db.SelectContext(ctx, &ratings, query, courseID); err != nil {
		return nil, fmt.Errorf("list course ratings: %w", err)
	}
	return ratings, nil
}

// DeleteReviewsByCourse removes all reviews belonging to a course.
func (r *CourseRepository) DeleteReviewsByCourse(ctx context.Context, courseID string) error {
	const query = `DELETE FROM course_reviews WHERE course_id = $1`
	if _, err := r.db.ExecContext(ctx, query, courseID); err != nil {
		return fmt.Errorf("delete course reviews: %w", err)
	}
	return nil
}
