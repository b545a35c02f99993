package user

import "context"

//go:generate mockgen -source repo_port.go -destination mock_repo_port.go -package user

type UserRepo interface {
	GetUsers(ctx context.Context) ([]User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	// CreateUser returns ErrUsernameTaken when the username is already registered.
	CreateUser(ctx context.Context, u User) error
	// UpdateUser replaces the user stored under u.Username. Returns ErrNotFound for unknown usernames.
	UpdateUser(ctx context.Context, u User) error
	DeleteUser(ctx context.Context, username string) error
}
