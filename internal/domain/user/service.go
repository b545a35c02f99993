package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"BakeryStore/pkg/ids"
)

type UserService struct {
	repo UserRepo
	now  func() time.Time
}

func NewUserService(repo UserRepo) *UserService {
	return &UserService{repo: repo, now: time.Now}
}

// Authenticate compares the password in plaintext. This is a demo login, not an auth system.
func (s *UserService) Authenticate(ctx context.Context, req LoginRequest) (User, error) {
	u, err := s.repo.GetUserByUsername(ctx, req.Username)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	if u.Password != req.Password {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Register always creates a customer account.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (User, error) {
	id, err := ids.New("USR-")
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}

	u := User{
		ID:          id,
		Username:    strings.TrimSpace(req.Username),
		Password:    req.Password,
		Name:        strings.TrimSpace(req.Name),
		Role:        RoleCustomer,
		PhoneNumber: req.PhoneNumber,
		JoinDate:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) GetUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	return users, nil
}

// CreateUser provisions an account with any role.
func (s *UserService) CreateUser(ctx context.Context, actor Actor, req CreateUserRequest) (User, error) {
	if actor.Role != RoleAdmin {
		return User{}, ErrAdminOnly
	}
	role, err := NewRole(req.Role)
	if err != nil {
		return User{}, ErrInvalidRole
	}

	id, err := ids.New("USR-")
	if err != nil {
		return User{}, fmt.Errorf("generate user id: %w", err)
	}
	u := User{
		ID:          id,
		Username:    strings.TrimSpace(req.Username),
		Password:    req.Password,
		Name:        strings.TrimSpace(req.Name),
		Role:        role,
		PhoneNumber: req.PhoneNumber,
		Bio:         req.Bio,
		JoinDate:    s.now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *UserService) UpdateUser(ctx context.Context, actor Actor, username string, req UpdateUserRequest) (User, error) {
	if actor.Role != RoleAdmin {
		return User{}, ErrAdminOnly
	}

	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}

	if req.Role != nil {
		role, err := NewRole(*req.Role)
		if err != nil {
			return User{}, ErrInvalidRole
		}
		if u.ID == actor.UserID && role != u.Role {
			return User{}, ErrDemoteSelf
		}
		u.Role = role
	}
	if req.Password != nil {
		u.Password = *req.Password
	}
	if req.Name != nil {
		u.Name = strings.TrimSpace(*req.Name)
	}
	if req.PhoneNumber != nil {
		u.PhoneNumber = *req.PhoneNumber
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}

	if err := s.repo.UpdateUser(ctx, u); err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor Actor, username string) error {
	if actor.Role != RoleAdmin {
		return ErrAdminOnly
	}

	u, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if u.ID == actor.UserID {
		return ErrDeleteSelf
	}

	if err := s.repo.DeleteUser(ctx, username); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
