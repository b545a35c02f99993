package user

import (
	"errors"
	"slices"
	"time"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleVendor   Role = "VENDOR"
	RoleAdmin    Role = "ADMIN"
	RoleDelivery Role = "DELIVERY"
)

var AvailableRoles = []Role{RoleCustomer, RoleVendor, RoleAdmin, RoleDelivery}

func NewRole(raw string) (Role, error) {
	if slices.Contains(AvailableRoles, Role(raw)) {
		return Role(raw), nil
	}
	return "", errors.New("invalid role")
}

// IsStaff reports whether the role runs the back office (vendor or admin).
func (r Role) IsStaff() bool {
	return r == RoleVendor || r == RoleAdmin
}

type User struct {
	ID          string    `json:"id" yaml:"id"`
	Username    string    `json:"username" yaml:"username"`
	Password    string    `json:"password,omitempty" yaml:"password"`
	Name        string    `json:"name" yaml:"name"`
	Role        Role      `json:"role" yaml:"role"`
	PhoneNumber string    `json:"phone_number,omitempty" yaml:"phone_number"`
	Bio         string    `json:"bio,omitempty" yaml:"bio"`
	JoinDate    time.Time `json:"join_date" yaml:"join_date"`
}

// Public returns a copy without the password.
func (u User) Public() User {
	u.Password = ""
	return u
}

func (u User) Actor() Actor {
	return Actor{UserID: u.ID, Name: u.Name, Role: u.Role}
}

// Actor is whoever issues a command: the authenticated caller of a service operation.
type Actor struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
}

type RegisterRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Password    string `json:"password" binding:"required,min=3,max=128"`
	Name        string `json:"name" binding:"required,min=1,max=128"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=32"`
}

// CreateUserRequest is the admin form for provisioning staff and customer accounts.
type CreateUserRequest struct {
	Username    string `json:"username" binding:"required,min=3,max=64"`
	Password    string `json:"password" binding:"required,min=3,max=128"`
	Name        string `json:"name" binding:"required,min=1,max=128"`
	Role        string `json:"role" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,max=32"`
	Bio         string `json:"bio" binding:"omitempty,max=500"`
}

// UpdateUserRequest edits a profile. The username is fixed once created.
type UpdateUserRequest struct {
	Password    *string `json:"password,omitempty" binding:"omitempty,min=3,max=128"`
	Name        *string `json:"name,omitempty" binding:"omitempty,min=1,max=128"`
	Role        *string `json:"role,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty" binding:"omitempty,max=32"`
	Bio         *string `json:"bio,omitempty" binding:"omitempty,max=500"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
