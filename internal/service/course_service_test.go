package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

type mockCourseRepo struct {
	courses       map[string]*models.Course
	details       map[string]*models.CourseDetail
	listResult    []models.CourseDetail
	listTotal     int
	listFilter    models.CourseFilter
	reviews       map[string]*models.Review
	ratings       []int
	createdReview *models.Review
	updatedRating float64
	deleted       []string
	statusUpdates map[string]models.CourseStatus
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{
		courses:       map[string]*models.Course{},
		details:       map[string]*models.CourseDetail{},
		reviews:       map[string]*models.Review{},
		statusUpdates: map[string]models.CourseStatus{},
	}
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "generated"
	}
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	course, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *course
	return &copied, nil
}

func (m *mockCourseRepo) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	detail, ok := m.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	m.listFilter = filter
	return m.listResult, m.listTotal, nil
}

func (m *mockCourseRepo) ListByInstructor(ctx context.Context, instructorID string) ([]models.Course, error) {
	var out []models.Course
	for _, c := range m.courses {
		if c.InstructorID == instructorID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	m.statusUpdates[id] = status
	if c, ok := m.courses[id]; ok {
		c.Status = status
	}
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, "course")
	delete(m.courses, id)
	return nil
}

func (m *mockCourseRepo) ListReviews(ctx context.Context, courseID string) ([]models.ReviewDetail, error) {
	return nil, nil
}

func (m *mockCourseRepo) FindReviewByUser(ctx context.Context, courseID, userID string) (*models.Review, error) {
	review, ok := m.reviews[courseID+"/"+userID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return review, nil
}

func (m *mockCourseRepo) CreateReview(ctx context.Context, review *models.Review) error {
	m.createdReview = review
	m.reviews[review.CourseID+"/"+review.UserID] = review
	return nil
}

func (m *mockCourseRepo) ListRatings(ctx context.Context, courseID string) ([]int, error) {
	return m.ratings, nil
}

func (m *mockCourseRepo) UpdateRating(ctx context.Context, id string, rating float64) error {
	m.updatedRating = rating
	return nil
}

func (m *mockCourseRepo) DeleteReviewsByCourse(ctx context.Context, courseID string) error {
	m.deleted = append(m.deleted, "reviews")
	return nil
}

type mockCourseLessonStore struct {
	summaries []models.LessonSummary
	deleted   *[]string
}

func (m *mockCourseLessonStore) ListSummariesByCourse(ctx context.Context, courseID string) ([]models.LessonSummary, error) {
	return m.summaries, nil
}

func (m *mockCourseLessonStore) DeleteByCourse(ctx context.Context, courseID string) error {
	if m.deleted != nil {
		*m.deleted = append(*m.deleted, "lessons")
	}
	return nil
}

type mockCourseEnrollmentStore struct {
	enrollment *models.Enrollment
	deleted    *[]string
}

func (m *mockCourseEnrollmentStore) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if m.enrollment == nil {
		return nil, sql.ErrNoRows
	}
	return m.enrollment, nil
}

func (m *mockCourseEnrollmentStore) DeleteByCourse(ctx context.Context, courseID string) error {
	if m.deleted != nil {
		*m.deleted = append(*m.deleted, "enrollments")
	}
	return nil
}

func newCourseService(repo *mockCourseRepo, lessons *mockCourseLessonStore, enrollments *mockCourseEnrollmentStore) *CourseService {
	return NewCourseService(repo, lessons, enrollments, NewAccessPolicy(), nil, nil, validator.New(), zap.NewNop())
}

func TestListObservesQueryDuration(t *testing.T) {
	repo := newMockCourseRepo()
	repo.listResult = []models.CourseDetail{}
	metrics := NewMetricsService()
	svc := NewCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{}, NewAccessPolicy(), nil, metrics, validator.New(), zap.NewNop())

	_, _, err := svc.List(context.Background(), nil, models.CourseFilter{})
	require.NoError(t, err)

	families, err := metrics.registry.Gather()
	require.NoError(t, err)
	var samples uint64
	for _, mf := range families {
		if mf.GetName() != "db_query_duration_seconds" {
			continue
		}
		for _, m := range mf.GetMetric() {
			samples += m.GetHistogram().GetSampleCount()
		}
	}
	assert.EqualValues(t, 1, samples)
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, averageRating(nil))
	assert.Equal(t, 5.0, averageRating([]int{5}))
	assert.Equal(t, 4.5, averageRating([]int{4, 5}))
	assert.Equal(t, 4.3, averageRating([]int{4, 4, 5}))
	assert.Equal(t, 3.7, averageRating([]int{3, 4, 4}))
}

func TestCreateCourseDraftDefault(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	course, err := svc.Create(context.Background(), claimsFor("i1", models.RoleInstructor), models.CreateCourseRequest{
		Title:       "Intro to Testing",
		Description: "A course about writing tests that actually catch bugs.",
		Category:    "Web Development",
		Level:       models.LevelBeginner,
		Price:       49.9,
		Duration:    12,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
	assert.Equal(t, "i1", course.InstructorID)
}

func TestCreateCourseUnknownCategory(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	_, err := svc.Create(context.Background(), claimsFor("i1", models.RoleInstructor), models.CreateCourseRequest{
		Title:       "Intro to Testing",
		Description: "A course about writing tests that actually catch bugs.",
		Category:    "Underwater Basket Weaving",
		Level:       models.LevelBeginner,
		Price:       49.9,
		Duration:    12,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateCourseForbiddenForUsers(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	_, err := svc.Create(context.Background(), claimsFor("u1", models.RoleUser), models.CreateCourseRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestListForcesPublishedForNonStaff(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	_, _, err := svc.List(context.Background(), nil, models.CourseFilter{Status: string(models.CourseStatusDraft)})
	require.NoError(t, err)
	assert.Equal(t, string(models.CourseStatusPublished), repo.listFilter.Status)

	_, _, err = svc.List(context.Background(), claimsFor("a1", models.RoleAdmin), models.CourseFilter{Status: string(models.CourseStatusDraft)})
	require.NoError(t, err)
	assert.Equal(t, string(models.CourseStatusDraft), repo.listFilter.Status)
}

func TestListPagination(t *testing.T) {
	repo := newMockCourseRepo()
	repo.listTotal = 25
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	_, pagination, err := svc.List(context.Background(), nil, models.CourseFilter{Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 25, pagination.TotalCount)
	assert.Equal(t, 3, pagination.TotalPages)
}

func TestGetDraftHiddenFromOthers(t *testing.T) {
	repo := newMockCourseRepo()
	repo.details["c1"] = &models.CourseDetail{Course: models.Course{ID: "c1", InstructorID: "i1", Status: models.CourseStatusDraft}}
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	_, err := svc.Get(context.Background(), claimsFor("u1", models.RoleUser), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	view, err := svc.Get(context.Background(), claimsFor("i1", models.RoleInstructor), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", view.Course.ID)
}

func TestGetUnknownCourse(t *testing.T) {
	repo := newMockCourseRepo()
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	_, err := svc.Get(context.Background(), nil, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateCourseOwnerOnly(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", InstructorID: "i1", Category: "Web Development"}
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	title := "New Title"
	_, err := svc.Update(context.Background(), claimsFor("i2", models.RoleInstructor), "c1", models.UpdateCourseRequest{Title: &title})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	course, err := svc.Update(context.Background(), claimsFor("i1", models.RoleInstructor), "c1", models.UpdateCourseRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New Title", course.Title)
	assert.Equal(t, "Web Development", course.Category)
}

func TestDeleteCourseFansOut(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", InstructorID: "i1"}
	lessons := &mockCourseLessonStore{deleted: &repo.deleted}
	enrollments := &mockCourseEnrollmentStore{deleted: &repo.deleted}
	svc := newCourseService(repo, lessons, enrollments)

	err := svc.Delete(context.Background(), claimsFor("i1", models.RoleInstructor), "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"lessons", "enrollments", "reviews", "course"}, repo.deleted)
}

func TestTogglePublish(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", InstructorID: "i1", Status: models.CourseStatusDraft}
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	course, err := svc.TogglePublish(context.Background(), claimsFor("i1", models.RoleInstructor), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusPublished, course.Status)

	course, err = svc.TogglePublish(context.Background(), claimsFor("i1", models.RoleInstructor), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusDraft, course.Status)
}

func TestAddReviewRequiresEnrollment(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", InstructorID: "i1", Status: models.CourseStatusPublished}
	svc := newCourseService(repo, &mockCourseLessonStore{}, &mockCourseEnrollmentStore{})

	_, err := svc.AddReview(context.Background(), claimsFor("u1", models.RoleUser), "c1", models.AddReviewRequest{Rating: 5})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "you must be enrolled to review this course", appErr.Message)
}

func TestAddReviewOncePerUser(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", InstructorID: "i1", Status: models.CourseStatusPublished}
	repo.reviews["c1/u1"] = &models.Review{CourseID: "c1", UserID: "u1", Rating: 4}
	enrollments := &mockCourseEnrollmentStore{enrollment: &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1"}}
	svc := newCourseService(repo, &mockCourseLessonStore{}, enrollments)

	_, err := svc.AddReview(context.Background(), claimsFor("u1", models.RoleUser), "c1", models.AddReviewRequest{Rating: 5})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAlreadyExists.Code, appErr.Code)
	assert.Equal(t, 400, appErr.Status)
}

func TestAddReviewRecomputesRating(t *testing.T) {
	repo := newMockCourseRepo()
	repo.courses["c1"] = &models.Course{ID: "c1", InstructorID: "i1", Status: models.CourseStatusPublished}
	repo.ratings = []int{4, 5}
	enrollments := &mockCourseEnrollmentStore{enrollment: &models.Enrollment{ID: "e1", UserID: "u1", CourseID: "c1"}}
	svc := newCourseService(repo, &mockCourseLessonStore{}, enrollments)

	course, err := svc.AddReview(context.Background(), claimsFor("u1", models.RoleUser), "c1", models.AddReviewRequest{Rating: 5})
	require.NoError(t, err)
	require.NotNil(t, repo.createdReview)
	assert.Equal(t, 5, repo.createdReview.Rating)
	assert.Equal(t, 4.5, repo.updatedRating)
	assert.Equal(t, 4.5, course.Rating)
}
