package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

func claimsFor(id string, role models.UserRole) *models.AccessClaims {
	return &models.AccessClaims{UserID: id, Role: role}
}

func TestCanCreateCourse(t *testing.T) {
	policy := NewAccessPolicy()

	assert.NoError(t, policy.CanCreateCourse(claimsFor("i1", models.RoleInstructor)))
	assert.NoError(t, policy.CanCreateCourse(claimsFor("a1", models.RoleAdmin)))

	err := policy.CanCreateCourse(claimsFor("u1", models.RoleUser))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = policy.CanCreateCourse(nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestCanMutateCourse(t *testing.T) {
	policy := NewAccessPolicy()
	course := &models.Course{ID: "c1", InstructorID: "i1"}

	assert.NoError(t, policy.CanMutateCourse(claimsFor("i1", models.RoleInstructor), course, "update"))
	assert.NoError(t, policy.CanMutateCourse(claimsFor("a1", models.RoleAdmin), course, "update"))

	err := policy.CanMutateCourse(claimsFor("i2", models.RoleInstructor), course, "delete")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, "not authorized to delete this course", appErr.Message)
}

func TestCanViewCourse(t *testing.T) {
	policy := NewAccessPolicy()
	published := &models.Course{ID: "c1", InstructorID: "i1", Status: models.CourseStatusPublished}
	draft := &models.Course{ID: "c2", InstructorID: "i1", Status: models.CourseStatusDraft}

	assert.NoError(t, policy.CanViewCourse(nil, published))
	assert.NoError(t, policy.CanViewCourse(claimsFor("u1", models.RoleUser), published))

	assert.NoError(t, policy.CanViewCourse(claimsFor("i1", models.RoleInstructor), draft))
	assert.NoError(t, policy.CanViewCourse(claimsFor("a1", models.RoleAdmin), draft))

	err := policy.CanViewCourse(claimsFor("u1", models.RoleUser), draft)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = policy.CanViewCourse(nil, draft)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCanListUsers(t *testing.T) {
	policy := NewAccessPolicy()

	assert.NoError(t, policy.CanListUsers(claimsFor("a1", models.RoleAdmin)))
	assert.Error(t, policy.CanListUsers(claimsFor("i1", models.RoleInstructor)))
	assert.Error(t, policy.CanListUsers(nil))
}

func TestStaffSeesAllStatuses(t *testing.T) {
	policy := NewAccessPolicy()

	assert.True(t, policy.StaffSeesAllStatuses(claimsFor("i1", models.RoleInstructor)))
	assert.True(t, policy.StaffSeesAllStatuses(claimsFor("a1", models.RoleAdmin)))
	assert.False(t, policy.StaffSeesAllStatuses(claimsFor("u1", models.RoleUser)))
	assert.False(t, policy.StaffSeesAllStatuses(nil))
}
