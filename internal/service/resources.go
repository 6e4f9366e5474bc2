package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/iliyamo/eventdesk/internal/metrics"
	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/policy"
)

// ResourceInput describes a resource to create.
type ResourceInput struct {
	Title       string
	Description *string
}

// ResourceChanges is a partial update; nil fields are left alone.
type ResourceChanges struct {
	Title       *string
	Description *string
}

// Resources manages the owned resources (items or events) of one variant.
type Resources struct {
	variant model.Variant
	store   ResourceStore
	log     *slog.Logger
}

// NewResources builds the resource service for variant.
func NewResources(v model.Variant, store ResourceStore, logger *slog.Logger) *Resources {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resources{variant: v, store: store, log: logger.With("variant", string(v))}
}

func (s *Resources) subject() string { return s.variant.ResourceName() }

// Create stores a new resource owned by actor.
func (s *Resources) Create(ctx context.Context, actor *model.Principal, in ResourceInput) (*model.Resource, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if actor.Variant != s.variant {
		s.deny(actor, policy.ActionUpdate)
		return nil, fromPolicy(policy.ErrVariantMismatch)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, newError(ErrInvalid, "title is required")
	}
	res := &model.Resource{
		Variant:     s.variant,
		OwnerID:     actor.ID,
		Title:       title,
		Description: in.Description,
	}
	if err := s.store.Create(ctx, res); err != nil {
		return nil, fromStore(err, s.subject())
	}
	s.log.Info(s.subject()+" created", "id", res.ID, "owner", res.OwnerID)
	return res, nil
}

// load fetches id and checks that actor may perform action on it.
func (s *Resources) load(ctx context.Context, actor *model.Principal, id uint64, action policy.Action) (*model.Resource, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	res, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fromStore(err, s.subject())
	}
	if err := policy.CheckResource(actor, res, action); err != nil {
		s.deny(actor, action)
		return nil, fromPolicy(err)
	}
	return res, nil
}

// Get returns resource id if actor owns it or is privileged.
func (s *Resources) Get(ctx context.Context, actor *model.Principal, id uint64) (*model.Resource, error) {
	return s.load(ctx, actor, id, policy.ActionRead)
}

// Update applies ch to resource id.
func (s *Resources) Update(ctx context.Context, actor *model.Principal, id uint64, ch ResourceChanges) (*model.Resource, error) {
	res, err := s.load(ctx, actor, id, policy.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if ch.Title != nil {
		title := strings.TrimSpace(*ch.Title)
		if title == "" {
			return nil, newError(ErrInvalid, "title is required")
		}
		res.Title = title
	}
	if ch.Description != nil {
		res.Description = ch.Description
	}
	if err := s.store.Update(ctx, res); err != nil {
		return nil, fromStore(err, s.subject())
	}
	return res, nil
}

// Delete removes resource id.
func (s *Resources) Delete(ctx context.Context, actor *model.Principal, id uint64) error {
	if _, err := s.load(ctx, actor, id, policy.ActionDelete); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fromStore(err, s.subject())
	}
	s.log.Info(s.subject()+" deleted", "id", id, "actor", actor.ID)
	return nil
}

// List returns the page of resources visible to actor and the total count
// under the same filter.
func (s *Resources) List(ctx context.Context, actor *model.Principal, offset, limit int) ([]*model.Resource, int, error) {
	if actor == nil {
		return nil, 0, ErrUnauthenticated
	}
	offset, limit = NormalizePage(offset, limit)
	return s.store.List(ctx, policy.ScopeFor(actor), offset, limit)
}

func (s *Resources) deny(actor *model.Principal, action policy.Action) {
	s.log.Info("access denied", "actor", actor.ID, "target", s.subject(), "action", action.String())
	metrics.Denied(string(s.variant), s.subject(), action.String())
}
