package models

import (
	"time"
)

const (
	RoleCitizen = "citizen"
	RoleOfficer = "officer"
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string // "citizen" or "officer"
	CreatedAt    time.Time
}

// IsValidRole reports whether role is one of the known user roles
func IsValidRole(role string) bool {
	return role == RoleCitizen || role == RoleOfficer
}
