package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error)
	ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error
	Delete(ctx context.Context, id string) error
	ListReviews(ctx context.Context, courseID string) ([]models.ReviewDetail, error)
	FindReviewByUser(ctx context.Context, courseID, userID string) (*models.Review, error)
	CreateReview(ctx context.Context, review *models.Review) error
	ListRatings(ctx context.Context, courseID string) ([]int, error)
	UpdateRating(ctx context.Context, id string, rating float64) error
	DeleteReviewsByCourse(ctx context.Context, courseID string) error
}

type courseLessonStore interface {
	ListSummariesByCourse(ctx context.Context, courseID string) ([]models.LessonSummary, error)
	DeleteByCourse(ctx context.Context, courseID string) error
}

type courseEnrollmentStore interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	DeleteByCourse(ctx context.Context, courseID string) error
}

// CourseService orchestrates the course catalogue, including reviews and the
// derived average rating.
type CourseService struct {
	repo        courseRepository
	lessons     courseLessonStore
	enrollments courseEnrollmentStore
	policy      *AccessPolicy
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, lessons courseLessonStore, enrollments courseEnrollmentStore, policy *AccessPolicy, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy == nil {
		policy = NewAccessPolicy()
	}
	return &CourseService{repo: repo, lessons: lessons, enrollments: enrollments, policy: policy, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Create adds a new draft course owned by the acting instructor.
func (s *CourseService) Create(ctx context.Context, claims *models.AccessClaims, req models.CreateCourseRequest) (*models.Course, error) {
	if err := s.policy.CanCreateCourse(claims); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if !models.ValidCategory(req.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown course category")
	}

	course := &models.Course{
		Title:        req.Title,
		Description:  req.Description,
		InstructorID: claims.UserID,
		Category:     req.Category,
		Price:        req.Price,
		Thumbnail:    req.Thumbnail,
		Duration:     req.Duration,
		Level:        req.Level,
		Status:       models.CourseStatusDraft,
		Tags:         models.StringList(req.Tags),
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.invalidateCache(ctx)
	return course, nil
}

// List returns the course catalogue. Actors without staff roles only ever
// see published courses, regardless of the requested status filter.
func (s *CourseService) List(ctx context.Context, claims *models.AccessClaims, filter models.CourseFilter) ([]models.CourseDetail, *models.Pagination, error) {
	if !s.policy.StaffSeesAllStatuses(claims) {
		filter.Status = string(models.CourseStatusPublished)
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 10
	}

	type cachedList struct {
		Courses    []models.CourseDetail `json:"courses"`
		Pagination models.Pagination     `json:"pagination"`
	}
	key := fmt.Sprintf("courses:list:%s:%s:%s:%s:%d:%d", filter.Category, filter.Level, filter.Status, filter.Search, filter.Page, filter.PageSize)

	var cached cachedList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Courses, &cached.Pagination, nil
	}

	start := time.Now()
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("courses_list", time.Since(start))
	}

	pagination := &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
		TotalPages: (total + filter.PageSize - 1) / filter.PageSize,
	}

	_ = s.cache.Set(ctx, key, cachedList{Courses: courses, Pagination: *pagination}, 0)
	return courses, pagination, nil
}

// Get returns the full course view. Visibility of non-published courses is
// restricted to the owning instructor and admins.
func (s *CourseService) Get(ctx context.Context, claims *models.AccessClaims, id string) (*models.CourseView, error) {
	key := "courses:detail:" + id

	var view models.CourseView
	hit, _ := s.cache.Get(ctx, key, &view)
	if !hit {
		start := time.Now()
		detail, err := s.repo.FindDetailByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
		}
		if s.metrics != nil {
			s.metrics.ObserveDBQuery("course_detail", time.Since(start))
		}

		reviews, err := s.repo.ListReviews(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load reviews")
		}
		lessons, err := s.lessons.ListSummariesByCourse(ctx, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
		}

		view = models.CourseView{Course: *detail, Lessons: lessons, Reviews: reviews}
		_ = s.cache.Set(ctx, key, view, 0)
	}

	// The policy runs on every request, cached or not.
	if err := s.policy.CanViewCourse(claims, &view.Course.Course); err != nil {
		return nil, err
	}
	return &view, nil
}

// Update applies the provided fields to a course. Only the owning instructor
// or an admin may update; the owner reference itself never changes.
func (s *CourseService) Update(ctx context.Context, claims *models.AccessClaims, id string, req models.UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanMutateCourse(claims, course, "update"); err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = *req.Title
	}
	if req.Description != nil {
		course.Description = *req.Description
	}
	if req.Category != nil {
		if !models.ValidCategory(*req.Category) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown course category")
		}
		course.Category = *req.Category
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Thumbnail != nil {
		course.Thumbnail = req.Thumbnail
	}
	if req.Duration != nil {
		course.Duration = *req.Duration
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.Tags != nil {
		course.Tags = models.StringList(req.Tags)
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.invalidateCache(ctx)
	return course, nil
}

// Delete removes a course and explicitly fans out to its lessons,
// enrollments and reviews.
func (s *CourseService) Delete(ctx context.Context, claims *models.AccessClaims, id string) error {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.CanMutateCourse(claims, course, "delete"); err != nil {
		return err
	}

	if err := s.lessons.DeleteByCourse(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course lessons")
	}
	if err := s.enrollments.DeleteByCourse(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course enrollments")
	}
	if err := s.repo.DeleteReviewsByCourse(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course reviews")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}

	s.invalidateCache(ctx)
	return nil
}

// TogglePublish flips a course between draft and published.
func (s *CourseService) TogglePublish(ctx context.Context, claims *models.AccessClaims, id string) (*models.Course, error) {
	course, err := s.loadCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.CanMutateCourse(claims, course, "publish"); err != nil {
		return nil, err
	}

	if course.Status == models.CourseStatusPublished {
		course.Status = models.CourseStatusDraft
	} else {
		course.Status = models.CourseStatusPublished
	}
	if err := s.repo.UpdateStatus(ctx, course.ID, course.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course status")
	}

	s.invalidateCache(ctx)
	return course, nil
}

// InstructorCourses returns the acting instructor's own courses.
func (s *CourseService) InstructorCourses(ctx context.Context, claims *models.AccessClaims) ([]models.Course, error) {
	if err := s.policy.CanListInstructorCourses(claims); err != nil {
		return nil, err
	}
	courses, err := s.repo.ListByInstructor(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list instructor courses")
	}
	return courses, nil
}

// AddReview appends a review and recomputes the course's average rating.
// The reviewer must hold an enrollment and must not have reviewed before.
func (s *CourseService) AddReview(ctx context.Context, claims *models.AccessClaims, courseID string, req models.AddReviewRequest) (*models.Course, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if _, err := s.enrollments.FindByUserAndCourse(ctx, claims.UserID, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "you must be enrolled to review this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
	}

	if _, err := s.repo.FindReviewByUser(ctx, courseID, claims.UserID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "you have already reviewed this course")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing review")
	}

	review := &models.Review{
		CourseID: courseID,
		UserID:   claims.UserID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}

	ratings, err := s.repo.ListRatings(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load ratings")
	}
	course.Rating = averageRating(ratings)
	if err := s.repo.UpdateRating(ctx, courseID, course.Rating); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update rating")
	}

	s.invalidateCache(ctx)
	return course, nil
}

func (s *CourseService) loadCourse(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *CourseService) invalidateCache(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, "courses:*")
}

// averageRating returns the mean of the ratings rounded to one decimal, or 0
// for an empty list.
func averageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	mean := float64(sum) / float64(len(ratings))
	return math.Round(mean*10) / 10
}
