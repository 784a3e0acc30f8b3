package service

import (
	"fmt"

	"github.com/learnhub/learnhub-api/internal/models"
	appErrors "github.com/learnhub/learnhub-api/pkg/errors"
)

// AccessPolicy is the pure authorization decision component. It holds no
// state; every decision is computed from the (actor, resource) snapshots
// passed in. A nil claims value means the request is unauthenticated.
type AccessPolicy struct{}

// NewAccessPolicy constructs an AccessPolicy.
func NewAccessPolicy() *AccessPolicy {
	return &AccessPolicy{}
}

// CanCreateCourse gates course creation on role.
func (p *AccessPolicy) CanCreateCourse(claims *models.AccessClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleInstructor && claims.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only instructors can create courses")
	}
	return nil
}

// CanMutateCourse gates update/delete/publish of a course and any lesson
// mutation beneath it. Allowed for the owning instructor or an admin.
// The action name is reflected in the denial message.
func (p *AccessPolicy) CanMutateCourse(claims *models.AccessClaims, course *models.Course, action string) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.UserID == course.InstructorID || claims.Role == models.RoleAdmin {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("not authorized to %s this course", action))
}

// CanViewCourse allows anyone to view a published course. Unpublished
// courses are visible only to their owning instructor or an admin.
func (p *AccessPolicy) CanViewCourse(claims *models.AccessClaims, course *models.Course) error {
	if course.Status == models.CourseStatusPublished {
		return nil
	}
	if claims != nil && (claims.UserID == course.InstructorID || claims.Role == models.RoleAdmin) {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "not authorized to view this course")
}

// CanListInstructorCourses gates the my-courses listing on role.
func (p *AccessPolicy) CanListInstructorCourses(claims *models.AccessClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleInstructor && claims.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "only instructors can list their courses")
	}
	return nil
}

// CanListUsers restricts the user directory to admins.
func (p *AccessPolicy) CanListUsers(claims *models.AccessClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return appErrors.Clone(appErrors.ErrForbidden, "admin access required")
	}
	return nil
}

// CanDeleteUser restricts user deletion to admins.
func (p *AccessPolicy) CanDeleteUser(claims *models.AccessClaims) error {
	return p.CanListUsers(claims)
}

// StaffSeesAllStatuses reports whether the actor may browse non-published
// courses in the catalogue listing.
func (p *AccessPolicy) StaffSeesAllStatuses(claims *models.AccessClaims) bool {
	return claims != nil && (claims.Role == models.RoleInstructor || claims.Role == models.RoleAdmin)
}
