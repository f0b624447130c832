package models

import (
	"fmt"
	"slices"
)

// Capability names one thing a role is allowed to do in the frontend.
type Capability string

const (
	CapCatalogBrowse Capability = "catalog:browse"
	CapBorrowedTrack Capability = "borrowed:track"
	CapCatalogManage Capability = "catalog:manage"
	CapUsersManage   Capability = "users:manage"
	CapAdminsCreate  Capability = "admins:create"
)

// Role is the account's role. Callers branch on capabilities, not on the
// role name.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
)

var roleCapabilities = map[Role][]Capability{
	RoleUser:  {CapCatalogBrowse, CapBorrowedTrack},
	RoleAdmin: {CapCatalogBrowse, CapCatalogManage, CapUsersManage, CapAdminsCreate},
}

// ParseRole converts a stored role name, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleCapabilities[r]; !ok {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Capabilities returns a copy of the role's capability set.
func (r Role) Capabilities() []Capability {
	return slices.Clone(roleCapabilities[r])
}

func (r Role) Can(c Capability) bool {
	return slices.Contains(roleCapabilities[r], c)
}
