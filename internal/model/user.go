package model

import "time"

// Roles stored in users.role and carried in the JWT "role" claim.
const (
    RolePassenger = "PASSENGER"
    RoleAdmin     = "ADMIN"
)

// User is a row of the `users` table.  It carries the password hash, so
// handlers answer with their own response types instead of this one.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Email        string    // users.email, stored lower-cased
    PasswordHash string    // users.password_hash (bcrypt)
    Role         string    // users.role
    IsActive     bool      // users.is_active; inactive users cannot log in
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}
