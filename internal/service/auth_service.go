package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gamelibrary/internal/access"
	"gamelibrary/internal/apperror"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
	"gamelibrary/internal/token"
	"gamelibrary/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// AuthService issues sessions and resolves callers from tokens.
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ChangePassword(ctx context.Context, caller access.Caller, req ChangePasswordRequest) error
	ResolveCaller(ctx context.Context, tokenString string) (access.Caller, error)
}

type authService struct {
	users     repository.UserRepository
	roles     repository.RoleRepository
	txManager repository.TransactionManager
	issuer    *token.Issuer
	adminRole string
}

// NewAuthService returns an AuthService. adminRole names the role that passes owner checks.
func NewAuthService(
	users repository.UserRepository,
	roles repository.RoleRepository,
	txManager repository.TransactionManager,
	issuer *token.Issuer,
	adminRole string,
) AuthService {
	return &authService{users: users, roles: roles, txManager: txManager, issuer: issuer, adminRole: adminRole}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Internalf("failed to hash password", err)
	}

	var user *model.User
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		exists, err := s.users.ExistsByEmail(txCtx, req.Email)
		if err != nil {
			return apperror.Internalf("failed to check email", err)
		}
		if exists {
			return apperror.ErrEmailTaken
		}

		role, err := s.roles.FindByName(txCtx, model.RoleUser)
		if err != nil {
			return apperror.Internalf("default role is missing, run the seed command", err)
		}

		user = &model.User{
			Name:     req.Name,
			Email:    req.Email,
			Password: string(hashedPassword),
			RoleID:   role.ID,
			Role:     *role,
		}
		if err := s.users.Create(txCtx, user); err != nil {
			if isDuplicate(err) {
				return apperror.ErrEmailTaken
			}
			return apperror.Internalf("failed to create user", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.session(user)
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Internalf("failed to fetch user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	return s.session(user)
}

func (s *authService) ChangePassword(ctx context.Context, caller access.Caller, req ChangePasswordRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, caller.ID)
	if err != nil {
		return notFoundOr(err, "user not found", "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)); err != nil {
		return apperror.New(apperror.Unauthenticated, "current password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperror.Internalf("failed to hash password", err)
	}

	if err := s.users.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return apperror.Internalf("failed to update password", err)
	}
	return nil
}

// ResolveCaller verifies the token and loads the user with a fresh permission set.
// A token whose user no longer exists is reported as an invalid token.
func (s *authService) ResolveCaller(ctx context.Context, tokenString string) (access.Caller, error) {
	claims, err := s.issuer.Parse(tokenString)
	if err != nil {
		return access.Caller{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return access.Caller{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return access.Caller{}, apperror.ErrInvalidToken
		}
		return access.Caller{}, apperror.Internalf("failed to fetch user", err)
	}

	perms, err := s.roles.PermissionsByUserID(ctx, user.ID)
	if err != nil {
		return access.Caller{}, apperror.Internalf("failed to verify permissions", err)
	}

	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}

	return access.Caller{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role.Name,
		Admin:       user.Role.Name == s.adminRole,
		Permissions: names,
	}, nil
}

func (s *authService) session(user *model.User) (*AuthResponse, error) {
	signed, expiresAt, err := s.issuer.Issue(user.ID, user.Email, user.Role.Name)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{Token: signed, ExpiresAt: expiresAt, User: mapToResponse(user)}, nil
}
