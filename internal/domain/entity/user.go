// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is the core entity in the system, representing a single account.
// Email and Username are both unique login identifiers; PasswordHash never
// leaves the persistence/authentication boundary.
type User struct {
	ID           uuid.UUID // The unique identifier for the user, assigned at creation.
	Email        string    // The user's primary login identifier. Unique.
	Username     string    // A unique, informational handle for the user.
	FirstName    string    // Optional given name.
	LastName     string    // Optional family name.
	PasswordHash string    // bcrypt hash of the user's password. Never serialized outward.
	Role         Role      // The user's role, default RoleUser at creation.
	IsActive     bool      // False disables login and token refresh entirely.
	CreatedAt    time.Time // Timestamp of when this account was created.
	UpdatedAt    time.Time // Timestamp of the last modification to this account.
}

// Sanitized returns a copy of the user with the credential hash stripped.
// Handlers and usecases return this shape, never the raw entity.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}

	clone := *u
	clone.PasswordHash = ""

	return &clone
}
