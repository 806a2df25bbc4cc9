package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/middleware"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubEnrollments struct {
	listed   string
	enrolled *dto.EnrollmentRequest
	err      error
}

func (s *stubEnrollments) AuthorizeFor(_ context.Context, claims *auth.Claims, email string) error {
	if claims != nil && (claims.IsTeacher() || strings.EqualFold(claims.Email, email)) {
		return nil
	}
	return apperrors.NewForbiddenError("You can only access your own enrollments.")
}

func (s *stubEnrollments) ListByStudent(_ context.Context, email string) ([]*models.Enrollment, error) {
	s.listed = email
	if s.err != nil {
		return nil, s.err
	}
	return []*models.Enrollment{}, nil
}

func (s *stubEnrollments) Enroll(_ context.Context, req *dto.EnrollmentRequest) (*models.Enrollment, error) {
	s.enrolled = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.Enrollment{ID: "e1", StudentEmail: req.StudentID, CourseID: req.CourseID}, nil
}

type stubAuth struct {
	changed string
	err     error
}

func (s *stubAuth) Login(context.Context, *dto.LoginRequest) (*dto.LoginResponse, error) {
	return nil, s.err
}

func (s *stubAuth) Logout(context.Context, *auth.Claims) error { return s.err }

func (s *stubAuth) ChangeCredential(_ context.Context, id string, _ *dto.ChangeCredentialRequest) error {
	s.changed = id
	return s.err
}

func withClaims(claims *auth.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.ClaimsKey, claims)
		}
		c.Next()
	}
}

func student(id, email string) *auth.Claims {
	return &auth.Claims{UserID: id, Email: email, Role: auth.RoleStudent}
}

func teacher() *auth.Claims {
	return &auth.Claims{UserID: "admin001", Email: "admin@campuspulse.com", Role: auth.RoleTeacher}
}

func serve(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorCode {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestEnrollmentController_Ownership(t *testing.T) {
	tests := []struct {
		name       string
		claims     *auth.Claims
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{
			name:       "student lists own enrollments",
			claims:     student("s1", "Ada@Campus.edu"),
			method:     http.MethodGet,
			path:       "/enrollments?studentId=ada@campus.edu",
			wantStatus: http.StatusOK,
		},
		{
			name:       "student lists another student's enrollments",
			claims:     student("s1", "ada@campus.edu"),
			method:     http.MethodGet,
			path:       "/enrollments?studentId=grace@campus.edu",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "teacher lists any student",
			claims:     teacher(),
			method:     http.MethodGet,
			path:       "/enrollments?studentId=grace@campus.edu",
			wantStatus: http.StatusOK,
		},
		{
			name:       "student enrolls self",
			claims:     student("s1", "ada@campus.edu"),
			method:     http.MethodPost,
			path:       "/enrollments",
			body:       `{"studentId":"ada@campus.edu","courseId":"c1"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "student enrolls someone else",
			claims:     student("s1", "ada@campus.edu"),
			method:     http.MethodPost,
			path:       "/enrollments",
			body:       `{"studentId":"grace@campus.edu","courseId":"c1"}`,
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "malformed body",
			claims:     teacher(),
			method:     http.MethodPost,
			path:       "/enrollments",
			body:       `{"studentId":"not-an-email"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &stubEnrollments{}
			ctrl := NewEnrollmentController(svc)

			router := gin.New()
			router.Use(withClaims(tt.claims))
			router.GET("/enrollments", ctrl.GetEnrollments)
			router.POST("/enrollments", ctrl.CreateEnrollment)

			w := serve(router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, dto.ErrorCodeForbidden, errorCode(t, w))
				assert.Nil(t, svc.enrolled)
				assert.Empty(t, svc.listed)
			}
		})
	}
}

func TestEnrollmentController_ServiceErrors(t *testing.T) {
	svc := &stubEnrollments{err: apperrors.NewConflictError("Student is already enrolled in this course.")}
	ctrl := NewEnrollmentController(svc)

	router := gin.New()
	router.Use(withClaims(teacher()))
	router.POST("/enrollments", ctrl.CreateEnrollment)

	w := serve(router, http.MethodPost, "/enrollments", `{"studentId":"ada@campus.edu","courseId":"c1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already enrolled")
}

func TestAuthController_ChangeCredential(t *testing.T) {
	body := `{"currentPassword":"password","newPassword":"s3cret!"}`

	t.Run("own account", func(t *testing.T) {
		svc := &stubAuth{}
		router := gin.New()
		router.Use(withClaims(student("s1", "ada@campus.edu")))
		router.PUT("/students/:id/credential", NewAuthController(svc, zerolog.Nop()).ChangeCredential)

		w := serve(router, http.MethodPut, "/students/s1/credential", body)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "s1", svc.changed)
	})

	t.Run("other account", func(t *testing.T) {
		svc := &stubAuth{}
		router := gin.New()
		router.Use(withClaims(student("s1", "ada@campus.edu")))
		router.PUT("/students/:id/credential", NewAuthController(svc, zerolog.Nop()).ChangeCredential)

		w := serve(router, http.MethodPut, "/students/s2/credential", body)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, svc.changed)
	})

	t.Run("wrong current password", func(t *testing.T) {
		svc := &stubAuth{err: apperrors.NewUnauthorizedError("Incorrect current password.")}
		router := gin.New()
		router.Use(withClaims(student("s1", "ada@campus.edu")))
		router.PUT("/students/:id/credential", NewAuthController(svc, zerolog.Nop()).ChangeCredential)

		w := serve(router, http.MethodPut, "/students/s1/credential", body)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthController_LogoutWithoutClaims(t *testing.T) {
	router := gin.New()
	router.POST("/logout", NewAuthController(&stubAuth{}, zerolog.Nop()).Logout)

	w := serve(router, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
