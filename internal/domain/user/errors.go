package user

import (
	"fmt"

	"BakeryStore/internal/controller/apperror"
)

var (
	ErrNotFound           = fmt.Errorf("%w: user not found", apperror.ErrNotFound)
	ErrUsernameTaken      = fmt.Errorf("%w: username already taken", apperror.ErrValidation)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", apperror.ErrUnauthorized)
	ErrInvalidRole        = fmt.Errorf("%w: invalid role", apperror.ErrValidation)

	ErrAdminOnly  = fmt.Errorf("%w: only admins manage accounts", apperror.ErrGuardViolation)
	ErrDeleteSelf = fmt.Errorf("%w: admins cannot delete their own account", apperror.ErrGuardViolation)
	ErrDemoteSelf = fmt.Errorf("%w: admins cannot change their own role", apperror.ErrGuardViolation)
)
