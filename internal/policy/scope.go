package policy

import "github.com/iliyamo/eventdesk/internal/model"

// Scope restricts a list query.  It is applied by the store as a WHERE
// clause so that pagination and the total count describe the same rows.
type Scope struct {
	Variant model.Variant
	// All is true when no owner filter applies.
	All bool
	// OwnerID is the required owner when All is false.
	OwnerID uint64
}

// ScopeFor returns the list scope for actor: everything in its variant for
// privileged actors, its own resources otherwise.
func ScopeFor(actor *model.Principal) Scope {
	if actor == nil {
		// No actor, no rows: owner 0 never exists.
		return Scope{}
	}
	if actor.IsPrivileged {
		return Scope{Variant: actor.Variant, All: true}
	}
	return Scope{Variant: actor.Variant, OwnerID: actor.ID}
}
