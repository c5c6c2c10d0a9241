package domain

import "fmt"

// Role is the authorization role carried by the identity service's tokens.
type Role string

const (
	RoleFarmer   Role = "farmer"   // renter
	RoleProvider Role = "provider" // equipment owner
	RoleAdmin    Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleFarmer, RoleProvider, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated caller of a core operation. Every mutating
// call takes an explicit Actor instead of reading ambient session state.
type Actor struct {
	ID   int32
	Role Role
}

// User is owned by the identity collaborator; the core only reads it for
// authorization decisions and notification addressing.
type User struct {
	ID    int32  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
	Role  Role   `json:"role"`
}
