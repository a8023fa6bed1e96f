package users

import (
	"time"

	"github.com/agrilink/agrilink/internal/store"
)

// Role is the single role assigned to a user account. There is no hierarchy:
// an admin does not implicitly satisfy a farmer- or expert-only check.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleFarmer Role = "farmer"
	RoleExpert Role = "expert"
	RolePublic Role = "public"
)

// ValidRole reports whether s is one of the four role tags.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleFarmer, RoleExpert, RolePublic:
		return true
	}
	return false
}

// User is a platform account, keyed externally by OpenID.
type User struct {
	ID           int64     `json:"id"           db:"id"`
	OpenID       string    `json:"openId"       db:"open_id"`
	Name         *string   `json:"name"         db:"name"`
	Email        *string   `json:"email"        db:"email"`
	LoginMethod  *string   `json:"loginMethod"  db:"login_method"`
	Role         Role      `json:"role"         db:"role"`
	Bio          *string   `json:"bio"          db:"bio"`
	ProfileImage *string   `json:"profileImage" db:"profile_image"`
	IsActive     bool      `json:"isActive"     db:"is_active"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
	LastSignedIn time.Time `json:"lastSignedIn" db:"last_signed_in"`
}

// UpsertInput is the partial write accepted by the identity upsert. Only the
// fields below are mutable through this path; absent fields are left
// untouched, null fields are cleared.
type UpsertInput struct {
	OpenID       string
	Name         store.Field[string]
	Email        store.Field[string]
	LoginMethod  store.Field[string]
	Role         store.Field[Role]
	LastSignedIn store.Field[time.Time]
}
