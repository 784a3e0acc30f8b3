package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/learnhub/learnhub-api/internal/service"
	"github.com/learnhub/learnhub-api/pkg/response"
)

// EnrollmentHandler wires HTTP endpoints to the enrollment service.
type EnrollmentHandler struct {
	service *service.EnrollmentService
}

// NewEnrollmentHandler creates a new handler.
func NewEnrollmentHandler(svc *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// Enroll godoc
// @Summary Enroll in a course
// @Description Enroll the authenticated user in a published course
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{courseId}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	enrollment, err := h.service.Enroll(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "enrolled", enrollment)
}

// MyEnrollments godoc
// @Summary My enrollments
// @Description List the authenticated user's enrollments, newest first
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /enrollments/my-enrollments [get]
func (h *EnrollmentHandler) MyEnrollments(c *gin.Context) {
	enrollments, err := h.service.MyEnrollments(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "enrollments", enrollments)
}

// Detail godoc
// @Summary Enrollment detail
// @Description Return the authenticated user's enrollment on a course with the lesson list
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{courseId} [get]
func (h *EnrollmentHandler) Detail(c *gin.Context) {
	view, err := h.service.Detail(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "enrollment", view)
}

// CompleteLesson godoc
// @Summary Complete a lesson
// @Description Mark a lesson as completed and recompute course progress
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{courseId}/lessons/{lessonId}/complete [post]
func (h *EnrollmentHandler) CompleteLesson(c *gin.Context) {
	enrollment, err := h.service.CompleteLesson(c.Request.Context(), claimsFromContext(c), c.Param("courseId"), c.Param("lessonId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "lesson completed", enrollment)
}

// Unenroll godoc
// @Summary Unenroll from a course
// @Description Remove the authenticated user's enrollment
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{courseId}/unenroll [delete]
func (h *EnrollmentHandler) Unenroll(c *gin.Context) {
	if err := h.service.Unenroll(c.Request.Context(), claimsFromContext(c), c.Param("courseId")); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "unenrolled", nil)
}

// Certificate godoc
// @Summary Completion certificate
// @Description Download a PDF certificate for a fully completed course
// @Tags Enrollments
// @Produce application/pdf
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {file} byte
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /enrollments/{courseId}/certificate [get]
func (h *EnrollmentHandler) Certificate(c *gin.Context) {
	pdf, filename, err := h.service.Certificate(c.Request.Context(), claimsFromContext(c), c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
