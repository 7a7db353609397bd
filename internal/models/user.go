package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the closed set of roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin UserRole = "SUPERADMIN"
	RoleAdmin      UserRole = "ADMIN"
	RoleViewer     UserRole = "VIEWER"
	RoleRegistrar  UserRole = "REGISTRAR"
)

// AssignableRoles are the roles that can be granted through the role
// update endpoint. SUPERADMIN is never assignable through the API.
var AssignableRoles = map[UserRole]struct{}{
	RoleAdmin:  {},
	RoleViewer: {},
}

// Capability is a named permission granting visibility into one
// dashboard area.
type Capability string

const (
	CapabilityAccessControl       Capability = "access_control"
	CapabilityAnganwadi           Capability = "anganwadi"
	CapabilityDistrict            Capability = "district"
	CapabilityState               Capability = "state"
	CapabilityStudentRegistration Capability = "student_registration"
)

// Capabilities is the fixed vocabulary accepted on access sets.
var Capabilities = map[Capability]struct{}{
	CapabilityAccessControl:       {},
	CapabilityAnganwadi:           {},
	CapabilityDistrict:            {},
	CapabilityState:               {},
	CapabilityStudentRegistration: {},
}

// IsValid reports whether the capability belongs to the fixed vocabulary.
func (c Capability) IsValid() bool {
	_, ok := Capabilities[c]
	return ok
}

// User represents an account stored in the users table. The password
// hash never serialises into API responses.
type User struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Role         UserRole       `db:"role" json:"role"`
	Access       pq.StringArray `db:"access" json:"access"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Public returns the account's public projection.
func (u *User) Public() UserInfo {
	return UserInfo{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Role:   u.Role,
		Access: append([]string(nil), u.Access...),
	}
}

// UserInfo is the public projection of an account.
type UserInfo struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	Access []string `json:"access"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
