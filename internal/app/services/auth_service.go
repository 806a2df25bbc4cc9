package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/campuspulse/campuspulse/internal/app/models"
	"github.com/campuspulse/campuspulse/internal/app/models/dto"
	"github.com/campuspulse/campuspulse/internal/app/repositories"
	"github.com/campuspulse/campuspulse/internal/pkg/apperrors"
	"github.com/campuspulse/campuspulse/internal/pkg/auth"
	"github.com/campuspulse/campuspulse/internal/pkg/cache"
	"github.com/campuspulse/campuspulse/internal/pkg/metrics"
	"github.com/campuspulse/campuspulse/internal/pkg/validation"
	"github.com/rs/zerolog"
)

const invalidLoginMessage = "Invalid email or password."

// AdminAccount is the fixed teacher account that lives outside the student store
type AdminAccount struct {
	ID       string
	Email    string
	Password string
}

// AuthService defines the interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	ChangeCredential(ctx context.Context, id string, req *dto.ChangeCredentialRequest) error
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	studentRepo repositories.StudentRepository
	jwtService  *auth.JWTService
	sessions    cache.SessionStore
	admin       AdminAccount
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewAuthService creates a new AuthService. sessions and m may be nil.
func NewAuthService(
	studentRepo repositories.StudentRepository,
	jwtService *auth.JWTService,
	sessions cache.SessionStore,
	admin AdminAccount,
	m *metrics.Metrics,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		studentRepo: studentRepo,
		jwtService:  jwtService,
		sessions:    sessions,
		admin:       admin,
		metrics:     m,
		logger:      logger,
	}
}

func secretEquals(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Login authenticates the fixed admin first and students second. Hashed and
// legacy credentials produce the same response.
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	email := models.NormalizeEmail(req.Email)

	if email == models.NormalizeEmail(s.admin.Email) && secretEquals(req.Password, s.admin.Password) {
		return s.issue(auth.Principal{ID: s.admin.ID, Email: email, Role: auth.RoleTeacher})
	}

	student, err := s.studentRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			s.metrics.LoginAttempt("failure")
			return nil, apperrors.NewUnauthorizedError(invalidLoginMessage)
		}
		s.logger.Error().Err(err).Msg("Failed to look up student for login")
		return nil, fmt.Errorf("error getting student: %w", err)
	}

	if !student.Credential.Matches(req.Password) {
		s.metrics.LoginAttempt("failure")
		s.logger.Debug().Str("email", email).Msg("Login rejected")
		return nil, apperrors.NewUnauthorizedError(invalidLoginMessage)
	}

	return s.issue(auth.Principal{ID: student.ID, Email: student.Email, Role: auth.RoleStudent})
}

func (s *authServiceImpl) issue(p auth.Principal) (*dto.LoginResponse, error) {
	token, claims, err := s.jwtService.GenerateAccessToken(p)
	if err != nil {
		s.logger.Error().Err(err).Str("userID", p.ID).Msg("Failed to issue access token")
		return nil, err
	}

	s.metrics.LoginAttempt("success")
	s.logger.Info().Str("userID", p.ID).Str("role", p.Role).Str("jti", claims.ID).Msg("User logged in")
	return &dto.LoginResponse{
		Role:        p.Role,
		Email:       p.Email,
		ID:          p.ID,
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   s.jwtService.ExpiresIn(),
	}, nil
}

// Logout revokes the presented token for the rest of its lifetime
func (s *authServiceImpl) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.sessions == nil || claims == nil {
		return nil
	}
	if err := s.sessions.RevokeToken(ctx, claims.ID, claims.TTL()); err != nil {
		s.logger.Error().Err(err).Str("jti", claims.ID).Msg("Failed to revoke token")
		return apperrors.NewServiceError("Failed to log out", err)
	}
	s.logger.Info().Str("userID", claims.UserID).Str("jti", claims.ID).Msg("User logged out")
	return nil
}

// ChangeCredential replaces a student's secret after checking the current
// one. The fixed admin account cannot be changed.
func (s *authServiceImpl) ChangeCredential(ctx context.Context, id string, req *dto.ChangeCredentialRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	if id == s.admin.ID {
		if secretEquals(req.CurrentPassword, s.admin.Password) {
			return apperrors.NewForbiddenError("Password for the default admin user cannot be changed.")
		}
		return apperrors.NewUnauthorizedError("Incorrect current password for admin.")
	}

	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return apperrors.NewResourceNotFoundError("Student not found.")
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to look up student for credential change")
		return fmt.Errorf("error getting student: %w", err)
	}

	if !student.Credential.Matches(req.CurrentPassword) {
		return apperrors.NewUnauthorizedError("Incorrect current password.")
	}

	credential, err := auth.NewCredential(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.studentRepo.UpdateCredential(ctx, student.ID, credential); err != nil {
		if errors.Is(err, apperrors.ErrStudentNotFound) {
			return apperrors.NewResourceNotFoundError("Student not found.")
		}
		s.logger.Error().Err(err).Str("id", id).Msg("Failed to update password")
		return fmt.Errorf("error updating credential: %w", err)
	}

	s.logger.Info().Str("id", id).Msg("Student credential changed")
	return nil
}
