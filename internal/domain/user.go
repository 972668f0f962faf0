package domain

import "time"

// Role enumerates account roles across the portal.
type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleManager  Role = "MANAGER"
	RoleEngineer Role = "ENGINEER"
	RoleAdmin    Role = "ADMIN"
)

// UserStatus represents lifecycle states for an account.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is the domain model for every account: customers who submit
// tickets and the managers/engineers/admins who work them.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
