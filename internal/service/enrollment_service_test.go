package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnhub/learnhub-api/internal/models"
	"github.com/learnhub/learnhub-api/internal/repository"
	"github.com/learnhub/learnhub-api/pkg/config"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
	"github.com/learnhub/learnhub-api/pkg/export"
)

type mockEnrollRepo struct {
	enrollments  map[string]*models.Enrollment
	createErr    error
	created      *models.Enrollment
	updated      *models.Enrollment
	updateCalls  int
	deletedID    string
	listResponse []models.EnrollmentDetail
}

func newMockEnrollRepo() *mockEnrollRepo {
	return &mockEnrollRepo{enrollments: map[string]*models.Enrollment{}}
}

func (m *mockEnrollRepo) key(userID, courseID string) string { return userID + "/" + courseID }

func (m *mockEnrollRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if m.createErr != nil {
		return m.createErr
	}
	if enrollment.ID == "" {
		enrollment.ID = "generated"
	}
	m.created = enrollment
	m.enrollments[m.key(enrollment.UserID, enrollment.CourseID)] = enrollment
	return nil
}

func (m *mockEnrollRepo) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	enrollment, ok := m.enrollments[m.key(userID, courseID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return enrollment, nil
}

func (m *mockEnrollRepo) ListByUser(ctx context.Context, userID string) ([]models.EnrollmentDetail, error) {
	return m.listResponse, nil
}

func (m *mockEnrollRepo) UpdateProgress(ctx context.Context, enrollment *models.Enrollment) error {
	m.updated = enrollment
	m.updateCalls++
	return nil
}

func (m *mockEnrollRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	return nil
}

type mockEnrollCourseStore struct {
	courses map[string]*models.Course
	details map[string]*models.CourseDetail
	deltas  []int
}

func (m *mockEnrollCourseStore) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return course, nil
}

func (m *mockEnrollCourseStore) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	detail, ok := m.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (m *mockEnrollCourseStore) IncrementEnrollmentCount(ctx context.Context, id string, delta int) error {
	m.deltas = append(m.deltas, delta)
	return nil
}

type mockEnrollLessonStore struct {
	lessons map[string]*models.Lesson
	count   int
}

func (m *mockEnrollLessonStore) FindByID(ctx context.Context, id string) (*models.Lesson, error) {
	lesson, ok := m.lessons[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return lesson, nil
}

func (m *mockEnrollLessonStore) ListByCourse(ctx context.Context, courseID string) ([]models.Lesson, error) {
	var out []models.Lesson
	for _, l := range m.lessons {
		if l.CourseID == courseID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *mockEnrollLessonStore) CountByCourse(ctx context.Context, courseID string) (int, error) {
	return m.count, nil
}

type mockEnrollUserReader struct {
	user *models.User
}

func (m *mockEnrollUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.user == nil {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func newEnrollmentService(repo *mockEnrollRepo, courses *mockEnrollCourseStore, lessons *mockEnrollLessonStore, users *mockEnrollUserReader, certCfg config.CertificatesConfig) *EnrollmentService {
	return NewEnrollmentService(repo, courses, lessons, users, nil, export.NewCertificateRenderer(), certCfg, zap.NewNop())
}

func TestEnrollPublishedCourse(t *testing.T) {
	repo := newMockEnrollRepo()
	courses := &mockEnrollCourseStore{courses: map[string]*models.Course{
		"c1": {ID: "c1", Status: models.CourseStatusPublished},
	}}
	svc := newEnrollmentService(repo, courses, &mockEnrollLessonStore{}, &mockEnrollUserReader{}, config.CertificatesConfig{})

	enrollment, err := svc.Enroll(context.Background(), claimsFor("u1", models.RoleUser), "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, enrollment.Progress)
	assert.Empty(t, enrollment.CompletedLessons)
	assert.Equal(t, []int{1}, courses.deltas)
}

func TestEnrollDraftCourseLooksMissing(t *testing.T) {
	repo := newMockEnrollRepo()
	courses := &mockEnrollCourseStore{courses: map[string]*models.Course{
		"c1": {ID: "c1", Status: models.CourseStatusDraft},
	}}
	svc := newEnrollmentService(repo, courses, &mockEnrollLessonStore{}, &mockEnrollUserReader{}, config.CertificatesConfig{})

	_, err := svc.Enroll(context.Background(), claimsFor("u1", models.RoleUser), "c1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "course not found or not available", appErr.Message)
}

func TestEnrollTwice(t *testing.T) {
	repo := newMockEnrollRepo()
	repo.createErr = repository.ErrDuplicateEnrollment
	courses := &mockEnrollCourseStore{courses: map[string]*models.Course{
		"c1": {ID: "c1", Status: models.CourseStatusPublished},
	}}
	svc := newEnrollmentService(repo, courses, &mockEnrollLessonStore{}, &mockEnrollUserReader{}, config.CertificatesConfig{})

	_, err := svc.Enroll(context.Background(), claimsFor("u1", models.RoleUser), "c1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyExists.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
	assert.Empty(t, courses.deltas)
}

func TestCompleteLessonProgress(t *testing.T) {
	repo := newMockEnrollRepo()
	repo.enrollments["u1/c1"] = &models.Enrollment{
		ID: "e1", UserID: "u1", CourseID: "c1",
		CompletedLessons: models.StringList{"l1"},
		Progress:         33,
	}
	lessons := &mockEnrollLessonStore{
		lessons: map[string]*models.Lesson{
			"l2": {ID: "l2", CourseID: "c1"},
		},
		count: 3,
	}
	svc := newEnrollmentService(repo, &mockEnrollCourseStore{}, lessons, &mockEnrollUserReader{}, config.CertificatesConfig{})

	enrollment, err := svc.CompleteLesson(context.Background(), claimsFor("u1", models.RoleUser), "c1", "l2")
	require.NoError(t, err)
	assert.Equal(t, 67, enrollment.Progress)
	assert.Nil(t, enrollment.CompletedAt)
	assert.False(t, enrollment.LastAccessedAt.IsZero())
	assert.Equal(t, 1, repo.updateCalls)
}

func TestCompleteLessonIdempotent(t *testing.T) {
	repo := newMockEnrollRepo()
	repo.enrollments["u1/c1"] = &models.Enrollment{
		ID: "e1", UserID: "u1", CourseID: "c1",
		CompletedLessons: models.StringList{"l1"},
		Progress:         50,
	}
	lessons := &mockEnrollLessonStore{
		lessons: map[string]*models.Lesson{
			"l1": {ID: "l1", CourseID: "c1"},
		},
		count: 2,
	}
	svc := newEnrollmentService(repo, &mockEnrollCourseStore{}, lessons, &mockEnrollUserReader{}, config.CertificatesConfig{})

	enrollment, err := svc.CompleteLesson(context.Background(), claimsFor("u1", models.RoleUser), "c1", "l1")
	require.NoError(t, err)
	assert.Equal(t, 50, enrollment.Progress)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestCompleteLastLessonLatchesCompletion(t *testing.T) {
	repo := newMockEnrollRepo()
	repo.enrollments["u1/c1"] = &models.Enrollment{
		ID: "e1", UserID: "u1", CourseID: "c1",
		CompletedLessons: models.StringList{"l1"},
		Progress:         50,
	}
	lessons := &mockEnrollLessonStore{
		lessons: map[string]*models.Lesson{
			"l2": {ID: "l2", CourseID: "c1"},
		},
		count: 2,
	}
	svc := newEnrollmentService(repo, &mockEnrollCourseStore{}, lessons, &mockEnrollUserReader{}, config.CertificatesConfig{})

	enrollment, err := svc.CompleteLesson(context.Background(), claimsFor("u1", models.RoleUser), "c1", "l2")
	require.NoError(t, err)
	assert.Equal(t, 100, enrollment.Progress)
	require.NotNil(t, enrollment.CompletedAt)

	completedAt := *enrollment.CompletedAt

	// Re-completing keeps the original completion timestamp.
	again, err := svc.CompleteLesson(context.Background(), claimsFor("u1", models.RoleUser), "c1", "l2")
	require.NoError(t, err)
	require.NotNil(t, again.CompletedAt)
	assert.Equal(t, completedAt, *again.CompletedAt)
}

func TestCompleteLessonWrongCourse(t *testing.T) {
	repo := newMockEnrollRepo()
	repo.enrollments["u1/c1"] = &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", CompletedLessons: models.StringList{}}
	lessons := &mockEnrollLessonStore{
		lessons: map[string]*models.Lesson{
			"l9": {ID: "l9", CourseID: "other-course"},
		},
		count: 1,
	}
	svc := newEnrollmentService(repo, &mockEnrollCourseStore{}, lessons, &mockEnrollUserReader{}, config.CertificatesConfig{})

	_, err := svc.CompleteLesson(context.Background(), claimsFor("u1", models.RoleUser), "c1", "l9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUnenroll(t *testing.T) {
	repo := newMockEnrollRepo()
	repo.enrollments["u1/c1"] = &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1"}
	courses := &mockEnrollCourseStore{}
	svc := newEnrollmentService(repo, courses, &mockEnrollLessonStore{}, &mockEnrollUserReader{}, config.CertificatesConfig{})

	err := svc.Unenroll(context.Background(), claimsFor("u1", models.RoleUser), "c1")
	require.NoError(t, err)
	assert.Equal(t, "e1", repo.deletedID)
	assert.Equal(t, []int{-1}, courses.deltas)
}

func TestUnenrollWithoutEnrollment(t *testing.T) {
	repo := newMockEnrollRepo()
	svc := newEnrollmentService(repo, &mockEnrollCourseStore{}, &mockEnrollLessonStore{}, &mockEnrollUserReader{}, config.CertificatesConfig{})

	err := svc.Unenroll(context.Background(), claimsFor("u1", models.RoleUser), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCertificateRequiresCompletion(t *testing.T) {
	repo := newMockEnrollRepo()
	repo.enrollments["u1/c1"] = &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Progress: 80}
	svc := newEnrollmentService(repo, &mockEnrollCourseStore{}, &mockEnrollLessonStore{}, &mockEnrollUserReader{}, config.CertificatesConfig{Enabled: true})

	_, _, err := svc.Certificate(context.Background(), claimsFor("u1", models.RoleUser), "c1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "course not completed", appErr.Message)
}

func TestCertificateDisabled(t *testing.T) {
	repo := newMockEnrollRepo()
	svc := newEnrollmentService(repo, &mockEnrollCourseStore{}, &mockEnrollLessonStore{}, &mockEnrollUserReader{}, config.CertificatesConfig{Enabled: false})

	_, _, err := svc.Certificate(context.Background(), claimsFor("u1", models.RoleUser), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCertificateRendersPDF(t *testing.T) {
	completedAt := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	repo := newMockEnrollRepo()
	repo.enrollments["u1/c1"] = &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1", Progress: 100, CompletedAt: &completedAt}
	courses := &mockEnrollCourseStore{details: map[string]*models.CourseDetail{
		"c1": {Course: models.Course{ID: "c1", Title: "Go for Backend Engineers"}, InstructorName: "Ada Instructor"},
	}}
	users := &mockEnrollUserReader{user: &models.User{ID: "u1", Name: "Sam Student"}}
	svc := newEnrollmentService(repo, courses, &mockEnrollLessonStore{}, users, config.CertificatesConfig{Enabled: true, IssuedBy: "LearnHub"})

	pdf, filename, err := svc.Certificate(context.Background(), claimsFor("u1", models.RoleUser), "c1")
	require.NoError(t, err)
	assert.Equal(t, "certificate-c1.pdf", filename)
	assert.True(t, len(pdf) > 0)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
