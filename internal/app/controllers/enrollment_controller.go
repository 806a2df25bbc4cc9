package controllers

import (
	"net/http"

	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/app/services"
	"github.com/campuspulse/campuspulse/internal/middleware"
	"github.com/gin-gonic/gin"
)

// EnrollmentController handles enrollment operations
type EnrollmentController struct {
	enrollmentService services.EnrollmentService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService services.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{enrollmentService: enrollmentService}
}

// authorize writes the error response and returns false when the caller may
// not act for email
func (c *EnrollmentController) authorize(ctx *gin.Context, email string) bool {
	claims, _ := middleware.ClaimsFrom(ctx)
	if err := c.enrollmentService.AuthorizeFor(ctx.Request.Context(), claims, email); err != nil {
		middleware.HandleAPIError(ctx, err)
		return false
	}
	return true
}

// GetEnrollments lists a student's enrollments
// @Summary List enrollments
// @Description Returns the enrollments of the student with the given email, each with its course summary
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param studentId query string true "Student email"
// @Success 200 {object} dto.APIResponse{data=[]models.Enrollment} "Enrollments"
// @Failure 400 {object} dto.ErrorResponse "Student ID is required"
// @Failure 403 {object} dto.ErrorResponse "Another student's enrollments"
// @Failure 500 {object} dto.ErrorResponse "Failed to fetch enrollments"
// @Router /enrollments [get]
func (c *EnrollmentController) GetEnrollments(ctx *gin.Context) {
	email := ctx.Query("studentId")
	if email != "" && !c.authorize(ctx, email) {
		return
	}

	enrollments, err := c.enrollmentService.ListByStudent(ctx.Request.Context(), email)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(enrollments))
}

// CreateEnrollment enrolls a student in a course
// @Summary Enroll
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.EnrollmentRequest true "Student email and course ID"
// @Success 201 {object} dto.APIResponse{data=models.Enrollment} "Enrolled"
// @Failure 400 {object} dto.ErrorResponse "Invalid enrollment data"
// @Failure 403 {object} dto.ErrorResponse "Another student's enrollment"
// @Failure 404 {object} dto.ErrorResponse "Student or course not found"
// @Failure 409 {object} dto.ErrorResponse "Student is already enrolled in this course"
// @Failure 500 {object} dto.ErrorResponse "Failed to enroll"
// @Router /enrollments [post]
func (c *EnrollmentController) CreateEnrollment(ctx *gin.Context) {
	var req dto.EnrollmentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}
	if !c.authorize(ctx, req.StudentID) {
		return
	}

	enrollment, err := c.enrollmentService.Enroll(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(enrollment))
}
