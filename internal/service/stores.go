// Package service implements account lifecycle, sessions, password recovery
// and owned-resource operations for one principal variant at a time.  A
// server builds one set of services per variant, each over its own stores.
package service

import (
	"context"

	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/policy"
	"github.com/iliyamo/eventdesk/internal/queue"
)

// PrincipalStore persists the principals of one variant.  Implementations
// return repository.ErrNotFound and repository.ErrConflict.
type PrincipalStore interface {
	Variant() model.Variant
	FindByEmail(ctx context.Context, email string) (*model.Principal, error)
	FindByID(ctx context.Context, id uint64) (*model.Principal, error)
	Create(ctx context.Context, p *model.Principal) error
	Update(ctx context.Context, p *model.Principal) error
	DeleteCascade(ctx context.Context, id uint64) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, offset, limit int) ([]*model.Principal, int, error)
}

// ResourceStore persists the owned resources of one variant.
type ResourceStore interface {
	Create(ctx context.Context, res *model.Resource) error
	GetByID(ctx context.Context, id uint64) (*model.Resource, error)
	Update(ctx context.Context, res *model.Resource) error
	Delete(ctx context.Context, id uint64) error
	List(ctx context.Context, scope policy.Scope, offset, limit int) ([]*model.Resource, int, error)
}

// Notifier hands account mail to whatever delivers it.
type Notifier interface {
	Send(ctx context.Context, msg queue.MailMessage) error
}

// Page bounds.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// NormalizePage clamps skip/limit query parameters.
func NormalizePage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return offset, limit
}
