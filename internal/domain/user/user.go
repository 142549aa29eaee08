package user

import "errors"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email is already registered")
)

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}
