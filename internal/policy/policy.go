// Package policy holds the access-control decisions shared by both principal
// hierarchies.  Every function here is pure: it looks only at the actor and
// the target it is given and never touches storage.
package policy

import (
	"errors"

	"github.com/iliyamo/eventdesk/internal/model"
)

// Action is an operation an actor wants to perform on a target.
type Action int

const (
	ActionRead Action = iota
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

var (
	// ErrForbidden means the actor lacks rights on the target.
	ErrForbidden = errors.New("policy: forbidden")
	// ErrSelfDelete means a privileged principal tried to delete itself.
	ErrSelfDelete = errors.New("policy: privileged principals cannot delete themselves")
	// ErrVariantMismatch means actor and target live in different hierarchies.
	ErrVariantMismatch = errors.New("policy: variant mismatch")
)

// CheckPrincipal decides whether actor may perform action on target.  The
// returned error says why a request was denied; callers that only need a
// yes/no use AllowPrincipal.
//
// Order matters: the privileged self-delete restriction is evaluated before
// privilege so that no principal can lock its variant out of administration.
func CheckPrincipal(actor, target *model.Principal, action Action) error {
	if actor == nil || target == nil {
		return ErrForbidden
	}
	if actor.Variant != target.Variant {
		return ErrVariantMismatch
	}
	self := actor.ID == target.ID
	if action == ActionDelete && self && actor.IsPrivileged {
		return ErrSelfDelete
	}
	if actor.IsPrivileged {
		return nil
	}
	if self {
		return nil
	}
	return ErrForbidden
}

// AllowPrincipal is the boolean form of CheckPrincipal.
func AllowPrincipal(actor, target *model.Principal, action Action) bool {
	return CheckPrincipal(actor, target, action) == nil
}

// CheckRead decides a read of the principal with targetID without needing
// the target row: self-read is always allowed, privileged actors may read
// anyone of their variant, and everybody else is denied whether or not the
// target exists.
func CheckRead(actor *model.Principal, targetID uint64) error {
	if actor == nil {
		return ErrForbidden
	}
	if actor.ID == targetID || actor.IsPrivileged {
		return nil
	}
	return ErrForbidden
}

// CheckResource decides whether actor may perform action on res.
func CheckResource(actor *model.Principal, res *model.Resource, action Action) error {
	if actor == nil || res == nil {
		return ErrForbidden
	}
	if actor.Variant != res.Variant {
		return ErrVariantMismatch
	}
	if actor.IsPrivileged {
		return nil
	}
	if res.OwnerID == actor.ID {
		return nil
	}
	return ErrForbidden
}

// AllowResource is the boolean form of CheckResource.
func AllowResource(actor *model.Principal, res *model.Resource, action Action) bool {
	return CheckResource(actor, res, action) == nil
}

// CanAdminister reports whether actor may use the administrative surface of
// its variant (list all principals, create principals, set flags).
func CanAdminister(actor *model.Principal) bool {
	return actor != nil && actor.IsPrivileged
}
