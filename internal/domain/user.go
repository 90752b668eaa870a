// Package domain contains core business types and interfaces.
//
// This file defines roles, the User projection the lifecycle engine consumes,
// and the officer candidate projection used by the assignment selector.
// Account ownership and authentication live outside this service.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies what a user is allowed to do to a report.
type Role string

const (
	RoleReporter   Role = "reporter"
	RoleOfficer    Role = "officer"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is a recognized value.
func (r Role) IsValid() bool {
	switch r {
	case RoleReporter, RoleOfficer, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// IsAdmin returns true for roles with full override power over transitions.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// Actor is the identity performing a lifecycle operation.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

// UserStatus represents the account state of a user.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// User is the read-only account projection consumed by the lifecycle engine.
type User struct {
	ID              uuid.UUID
	Email           string
	Name            string
	Role            Role
	Status          UserStatus
	DepartmentLabel string // Free-text label, matched during candidate lookup
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsActiveOfficer returns true if the user can receive assignments.
func (u *User) IsActiveOfficer() bool {
	return u.Role == RoleOfficer && u.Status == UserStatusActive
}

// OfficerCandidate is the projection the assignment selector works with.
// The directory returns only active officers, so no status flag is carried.
type OfficerCandidate struct {
	ID              uuid.UUID
	DepartmentLabel string
}
