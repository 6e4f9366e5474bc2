package model

import "time"

// Variant names one of the two independent principal hierarchies.  Users
// own items and organizers own events; identities, tokens and privileges
// never cross from one variant to the other.
type Variant string

const (
	VariantUser      Variant = "user"
	VariantOrganizer Variant = "organizer"
)

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return v == VariantUser || v == VariantOrganizer
}

// PrincipalTable is the table holding principals of this variant.
func (v Variant) PrincipalTable() string {
	if v == VariantOrganizer {
		return "organizers"
	}
	return "users"
}

// ResourceTable is the table holding the resources owned by this variant.
func (v Variant) ResourceTable() string {
	if v == VariantOrganizer {
		return "events"
	}
	return "items"
}

// ResourceName is the singular, human readable name of the owned resource.
func (v Variant) ResourceName() string {
	if v == VariantOrganizer {
		return "event"
	}
	return "item"
}

// ResetPurpose is the purpose discriminator carried by password reset tokens
// of this variant.
func (v Variant) ResetPurpose() string {
	return "password-reset:" + string(v)
}

// Principal mirrors a row of the `users` or `organizers` table.  There are
// no json tags; handlers define their own response types.
//
// Fields:
//
//	ID           – primary key, assigned by the database and never reused.
//	Variant      – which hierarchy the row belongs to (not stored, implied by table).
//	Email        – unique identity within the variant.
//	PasswordHash – bcrypt digest; never serialized.
//	FullName     – optional display name.
//	IsActive     – inactive principals cannot authenticate.
//	IsPrivileged – superuser / superorganizer flag.
type Principal struct {
	ID           uint64
	Variant      Variant
	Email        string
	PasswordHash string
	FullName     *string
	IsActive     bool
	IsPrivileged bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Resource mirrors a row of the `items` or `events` table.
type Resource struct {
	ID          uint64
	Variant     Variant
	OwnerID     uint64
	Title       string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PrivilegedField is the column and JSON field carrying the privileged flag.
func (v Variant) PrivilegedField() string {
	if v == VariantOrganizer {
		return "is_superorganizer"
	}
	return "is_superuser"
}
