package service

import (
	"context"

	"gamelibrary/internal/access"
	"gamelibrary/internal/apperror"
	"gamelibrary/internal/model"
	"gamelibrary/internal/repository"
)

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	RoleID    uint   `json:"role_id"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// MeResponse is the caller's profile with the permission names its role holds.
type MeResponse struct {
	UserResponse
	Permissions []string `json:"permissions"`
}

// UserService defines the interface for business logic related to User
type UserService interface {
	Me(ctx context.Context, caller access.Caller) (*MeResponse, error)
	GetUserByID(ctx context.Context, id uint) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	DeleteUser(ctx context.Context, caller access.Caller, id uint) error
}

type userService struct {
	repo      repository.UserRepository
	txManager repository.TransactionManager
}

// NewUserService returns a new instance of UserService
func NewUserService(repo repository.UserRepository, txManager repository.TransactionManager) UserService {
	return &userService{repo: repo, txManager: txManager}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		RoleID:    user.RoleID,
		Role:      user.Role.Name,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (s *userService) Me(ctx context.Context, caller access.Caller) (*MeResponse, error) {
	user, err := s.GetUserByID(ctx, caller.ID)
	if err != nil {
		return nil, err
	}

	perms := caller.Permissions
	if perms == nil {
		perms = []string{}
	}
	return &MeResponse{UserResponse: *user, Permissions: perms}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uint) (*UserResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "user not found", "failed to fetch user")
	}
	resp := mapToResponse(user)
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperror.Internalf("failed to fetch users", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, mapToResponse(&users[i]))
	}

	return responses, total, nil
}

// DeleteUser removes a user and everything it owns. Callers cannot delete themselves.
func (s *userService) DeleteUser(ctx context.Context, caller access.Caller, id uint) error {
	if caller.ID == id {
		return apperror.New(apperror.Forbidden, "cannot delete your own account")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		affected, err := s.repo.Delete(txCtx, id)
		if err != nil {
			return apperror.Internalf("failed to delete user", err)
		}
		if affected == 0 {
			return apperror.New(apperror.NotFound, "user not found")
		}
		return nil
	})
}
