package model

import (
	"errors"
)

var (
	ErrOperatorNotFound = errors.New("operator not found")
	ErrOperatorExists   = errors.New("operator already exists")
	ErrLastOperator     = errors.New("cannot remove the last operator")
	ErrPermissionDenied = errors.New("permission denied")
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
)

type Permission string

const (
	PermissionAll    Permission = "all"
	PermissionOrders Permission = "orders"
)

// PermissionsFor returns the permission set granted to a new operator of the given role.
func PermissionsFor(role Role) []Permission {
	if role == RoleAdmin {
		return []Permission{PermissionAll}
	}
	return []Permission{PermissionOrders}
}

type Operator struct {
	UserID      Identity     `json:"user_id"`
	Role        Role         `json:"role"`
	Permissions []Permission `json:"permissions"`
}

// Grants reports whether the operator holds token or the wildcard.
func (o Operator) Grants(token Permission) bool {
	for _, p := range o.Permissions {
		if p == token || p == PermissionAll {
			return true
		}
	}
	return false
}

type RosterRepository interface {
	Load() ([]Operator, error)
	Update(fn func(operators []Operator) ([]Operator, error)) error
	Replace(operators []Operator) error
	Export() (Document, error)
}
