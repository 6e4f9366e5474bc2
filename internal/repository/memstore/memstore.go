// Package memstore is an in-memory implementation of the principal and
// resource stores with the same error contract as the MySQL repositories.
// It backs the service and HTTP tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/policy"
	"github.com/iliyamo/eventdesk/internal/queue"
	"github.com/iliyamo/eventdesk/internal/repository"
)

// Store holds the principals and resources of one variant under one lock,
// so a cascade delete is atomic.
type Store struct {
	mu        sync.Mutex
	variant   model.Variant
	lastP     uint64
	lastR     uint64
	principal map[uint64]model.Principal
	resource  map[uint64]model.Resource
}

// New returns an empty store for variant v.
func New(v model.Variant) *Store {
	return &Store{variant: v, principal: map[uint64]model.Principal{}, resource: map[uint64]model.Resource{}}
}

// Principals is the principal facet of a Store.
type Principals struct{ s *Store }

// Resources is the resource facet of a Store.
type Resources struct{ s *Store }

func (s *Store) Principals() Principals { return Principals{s} }
func (s *Store) Resources() Resources   { return Resources{s} }

func (p Principals) Variant() model.Variant { return p.s.variant }

func (p Principals) FindByEmail(_ context.Context, email string) (*model.Principal, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	for _, row := range p.s.principal {
		if row.Email == email {
			return &row, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (p Principals) FindByID(_ context.Context, id uint64) (*model.Principal, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if row, ok := p.s.principal[id]; ok {
		return &row, nil
	}
	return nil, repository.ErrNotFound
}

func (p Principals) taken(email string, except uint64) bool {
	for id, row := range p.s.principal {
		if row.Email == email && id != except {
			return true
		}
	}
	return false
}

func (p Principals) Create(_ context.Context, in *model.Principal) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if p.taken(in.Email, 0) {
		return repository.ErrConflict
	}
	p.s.lastP++
	in.ID, in.Variant = p.s.lastP, p.s.variant
	in.CreatedAt = time.Now().UTC()
	in.UpdatedAt = in.CreatedAt
	p.s.principal[in.ID] = *in
	return nil
}

func (p Principals) Update(_ context.Context, in *model.Principal) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, ok := p.s.principal[in.ID]; !ok {
		return repository.ErrNotFound
	}
	if p.taken(in.Email, in.ID) {
		return repository.ErrConflict
	}
	in.UpdatedAt = time.Now().UTC()
	p.s.principal[in.ID] = *in
	return nil
}

func (p Principals) DeleteCascade(_ context.Context, id uint64) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	if _, ok := p.s.principal[id]; !ok {
		return repository.ErrNotFound
	}
	for rid, r := range p.s.resource {
		if r.OwnerID == id {
			delete(p.s.resource, rid)
		}
	}
	delete(p.s.principal, id)
	return nil
}

func (p Principals) Count(context.Context) (int, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	return len(p.s.principal), nil
}

func (p Principals) List(_ context.Context, offset, limit int) ([]*model.Principal, int, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	all := make([]*model.Principal, 0, len(p.s.principal))
	for _, row := range p.s.principal {
		cp := row
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, offset, limit), len(all), nil
}

func (r Resources) Create(_ context.Context, in *model.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.principal[in.OwnerID]; !ok {
		return repository.ErrOwnerNotFound
	}
	r.s.lastR++
	in.ID, in.Variant = r.s.lastR, r.s.variant
	in.CreatedAt = time.Now().UTC()
	in.UpdatedAt = in.CreatedAt
	r.s.resource[in.ID] = *in
	return nil
}

func (r Resources) GetByID(_ context.Context, id uint64) (*model.Resource, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if row, ok := r.s.resource[id]; ok {
		return &row, nil
	}
	return nil, repository.ErrNotFound
}

func (r Resources) Update(_ context.Context, in *model.Resource) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.resource[in.ID]; !ok {
		return repository.ErrNotFound
	}
	in.UpdatedAt = time.Now().UTC()
	r.s.resource[in.ID] = *in
	return nil
}

func (r Resources) Delete(_ context.Context, id uint64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.resource[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.resource, id)
	return nil
}

func (r Resources) List(_ context.Context, scope policy.Scope, offset, limit int) ([]*model.Resource, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []*model.Resource
	for _, row := range r.s.resource {
		if scope.All || row.OwnerID == scope.OwnerID {
			cp := row
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return window(all, offset, limit), len(all), nil
}

// OwnedBy counts the resources of owner.
func (r Resources) OwnedBy(owner uint64) int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, row := range r.s.resource {
		if row.OwnerID == owner {
			n++
		}
	}
	return n
}

func window[T any](all []T, offset, limit int) []T {
	if offset >= len(all) {
		return []T{}
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end]
}

// Outbox records mail instead of delivering it.
type Outbox struct {
	mu   sync.Mutex
	sent []queue.MailMessage
}

func (o *Outbox) Send(_ context.Context, msg queue.MailMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

// Sent returns a copy of everything sent so far.
func (o *Outbox) Sent() []queue.MailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]queue.MailMessage(nil), o.sent...)
}
