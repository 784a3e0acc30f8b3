package service

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/internal/repository"
	"github.com/learnhub/learnhub-api/pkg/config"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
	"github.com/learnhub/learnhub-api/pkg/export"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error)
	UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error
	Delete(ctx context.Context, id string) error
}

type enrollmentCourseStore interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	IncrementEnrollmentCount(ctx context.Context, id string, delta int) error
}

type enrollmentLessonStore interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error)
	CountByCourse(ctx context.Context, courseID string) (int, error)
}

type enrollmentUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// EnrollmentService tracks which courses a user takes and how far they have
// progressed through each one.
type EnrollmentService struct {
	repo         enrollmentRepository
	courses      enrollmentCourseStore
	lessons      enrollmentLessonStore
	users        enrollmentUserReader
	cache        *CacheService
	certificates *export.CertificateRenderer
	certConfig   config.CertificatesConfig
	logger       *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, courses enrollmentCourseStore, lessons enrollmentLessonStore, users enrollmentUserReader, cache *CacheService, certificates *export.CertificateRenderer, certConfig config.CertificatesConfig, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{
		repo:         repo,
		courses:      courses,
		lessons:      lessons,
		users:        users,
		cache:        cache,
		certificates: certificates,
		certConfig:   certConfig,
		logger:       logger,
	}
}

// Enroll registers the current user on a published course. Unpublished and
// unknown courses are indistinguishable in the response.
func (s *EnrollmentService) Enroll(ctx context.Context, claims *models.AccessClaims, courseID string) (*models.Enrollment, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found or not available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if course.Status != models.CourseStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found or not available")
	}

	enrollment := &models.Enrollment{
		UserID:           claims.UserID,
		CourseID:         courseID,
		Progress:         0,
		CompletedLessons: models.StringList{},
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicateEnrollment) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyExists, "already enrolled in this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll")
	}

	if err := s.courses.IncrementEnrollmentCount(ctx, courseID, 1); err != nil {
		s.logger.Warn("failed to bump enrollment count", zap.String("course_id", courseID), zap.Error(err))
	}
	_ = s.cache.Invalidate(ctx, "courses:*")

	s.logger.Info("user enrolled", zap.String("user_id", claims.UserID), zap.String("course_id", courseID))
	return enrollment, nil
}

// MyEnrollments returns the current user's enrollments, newest first.
func (s *EnrollmentService) MyEnrollments(ctx context.Context, claims *models.AccessClaims) ([]models.EnrollmentDetail, error) {
	enrollments, err := s.repo.ListByUser(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

// Detail returns the current user's enrollment on a course together with the
// course's lesson list.
func (s *EnrollmentService) Detail(ctx context.Context, claims *models.AccessClaims, courseID string) (*models.EnrollmentView, error) {
	enrollment, err := s.loadEnrollment(ctx, claims.UserID, courseID)
	if err != nil {
		return nil, err
	}
	lessons, err := s.lessons.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list lessons")
	}
	return &models.EnrollmentView{Enrollment: *enrollment, Lessons: lessons}, nil
}

// CompleteLesson marks a lesson as completed for the current user and
// recomputes progress against the course's current lesson count. Completing
// the same lesson twice is a no-op that returns the stored state.
func (s *EnrollmentService) CompleteLesson(ctx context.Context, claims *models.AccessClaims, courseID, lessonID string) (*models.Enrollment, error) {
	enrollment, err := s.loadEnrollment(ctx, claims.UserID, courseID)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessons.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	if lesson.CourseID != courseID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}

	if enrollment.CompletedLessons.Contains(lessonID) {
		return enrollment, nil
	}

	enrollment.CompletedLessons = append(enrollment.CompletedLessons, lessonID)
	total, err := s.lessons.CountByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count lessons")
	}
	enrollment.Progress = progressPercent(len(enrollment.CompletedLessons), total)
	enrollment.LastAccessedAt = time.Now().UTC()
	if enrollment.Progress >= 100 && enrollment.CompletedAt == nil {
		now := time.Now().UTC()
		enrollment.CompletedAt = &now
	}

	if err := s.repo.UpdateProgress(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update progress")
	}
	return enrollment, nil
}

// Unenroll removes the current user's enrollment and releases the course seat.
func (s *EnrollmentService) Unenroll(ctx context.Context, claims *models.AccessClaims, courseID string) error {
	enrollment, err := s.loadEnrollment(ctx, claims.UserID, courseID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, enrollment.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll")
	}

	if err := s.courses.IncrementEnrollmentCount(ctx, courseID, -1); err != nil {
		s.logger.Warn("failed to bump enrollment count", zap.String("course_id", courseID), zap.Error(err))
	}
	_ = s.cache.Invalidate(ctx, "courses:*")

	s.logger.Info("user unenrolled", zap.String("user_id", claims.UserID), zap.String("course_id", courseID))
	return nil
}

// Certificate renders a completion certificate PDF for a fully completed
// course. Returns the PDF bytes and a suggested file name.
func (s *EnrollmentService) Certificate(ctx context.Context, claims *models.AccessClaims, courseID string) ([]byte, string, error) {
	if !s.certConfig.Enabled || s.certificates == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificates are not available")
	}

	enrollment, err := s.loadEnrollment(ctx, claims.UserID, courseID)
	if err != nil {
		return nil, "", err
	}
	if enrollment.Progress < 100 {
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "course not completed")
	}

	course, err := s.courses.FindDetailByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	student, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	completedAt := time.Now().UTC()
	if enrollment.CompletedAt != nil {
		completedAt = *enrollment.CompletedAt
	}
	pdf, err := s.certificates.Render(export.Certificate{
		StudentName: student.Name,
		CourseTitle: course.Title,
		Instructor:  course.InstructorName,
		CompletedAt: completedAt,
		IssuedBy:    s.certConfig.IssuedBy,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	filename := "certificate-" + courseID + ".pdf"
	return pdf, filename, nil
}

func (s *EnrollmentService) loadEnrollment(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

func progressPercent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completed) / float64(total) * 100))
	if pct > 100 {
		pct = 100
	}
	return pct
}
