package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/policy"
)

// ResourceRepo stores the resources owned by one variant: items for users,
// events for organizers.
type ResourceRepo struct {
	db      *sql.DB
	variant model.Variant
	q       resourceQueries
}

type resourceQueries struct {
	lockOwner  string
	insert     string
	selectByID string
	update     string
	delete     string
	countAll   string
	countOwner string
	listAll    string
	listOwner  string
}

const resourceCols = "id, owner_id, title, description, created_at, updated_at"

// NewResourceRepo returns the store for resources owned by variant v.
func NewResourceRepo(db *sql.DB, v model.Variant) *ResourceRepo {
	t := v.ResourceTable()
	return &ResourceRepo{
		db:      db,
		variant: v,
		q: resourceQueries{
			lockOwner:  fmt.Sprintf("SELECT id FROM %s WHERE id = ? LOCK IN SHARE MODE", v.PrincipalTable()),
			insert:     fmt.Sprintf("INSERT INTO %s (owner_id, title, description) VALUES (?, ?, ?)", t),
			selectByID: fmt.Sprintf("SELECT %s FROM %s WHERE id = ?", resourceCols, t),
			update:     fmt.Sprintf("UPDATE %s SET title = ?, description = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", t),
			delete:     fmt.Sprintf("DELETE FROM %s WHERE id = ?", t),
			countAll:   fmt.Sprintf("SELECT COUNT(*) FROM %s", t),
			countOwner: fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE owner_id = ?", t),
			listAll:    fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT ? OFFSET ?", resourceCols, t),
			listOwner:  fmt.Sprintf("SELECT %s FROM %s WHERE owner_id = ? ORDER BY id LIMIT ? OFFSET ?", resourceCols, t),
		},
	}
}

func (r *ResourceRepo) scan(row rowScanner) (*model.Resource, error) {
	var (
		res  model.Resource
		desc sql.NullString
	)
	if err := row.Scan(&res.ID, &res.OwnerID, &res.Title, &desc, &res.CreatedAt, &res.UpdatedAt); err != nil {
		return nil, err
	}
	res.Variant = r.variant
	if desc.Valid {
		d := desc.String
		res.Description = &d
	}
	return &res, nil
}

// Create inserts res for its owner.  The owner row is share-locked for the
// duration of the insert so it cannot be deleted underneath it.
func (r *ResourceRepo) Create(ctx context.Context, res *model.Resource) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var owner uint64
		if err := tx.QueryRowContext(ctx, r.q.lockOwner, res.OwnerID).Scan(&owner); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOwnerNotFound
			}
			return err
		}
		out, err := tx.ExecContext(ctx, r.q.insert, res.OwnerID, res.Title, nullString(res.Description))
		if err != nil {
			return err
		}
		id, err := out.LastInsertId()
		if err != nil {
			return err
		}
		res.ID = uint64(id)
		res.Variant = r.variant
		return nil
	})
}

// GetByID fetches a resource by id regardless of owner; ownership is the
// policy's decision, not the store's.
func (r *ResourceRepo) GetByID(ctx context.Context, id uint64) (*model.Resource, error) {
	res, err := r.scan(r.db.QueryRowContext(ctx, r.q.selectByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return res, err
}

// Update writes title and description.  The owner never changes.  It
// returns ErrNotFound when the row is gone; the connection reports matched
// rather than changed rows (see database.DSN).
func (r *ResourceRepo) Update(ctx context.Context, res *model.Resource) error {
	out, err := r.db.ExecContext(ctx, r.q.update, res.Title, nullString(res.Description), res.ID)
	if err != nil {
		return err
	}
	if n, _ := out.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes one resource.  It returns ErrNotFound when no row matched.
func (r *ResourceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, r.q.delete, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of resources inside scope and the total number of
// rows inside the same scope.  The owner filter is part of the SQL, so the
// count and the page always agree.
func (r *ResourceRepo) List(ctx context.Context, scope policy.Scope, offset, limit int) ([]*model.Resource, int, error) {
	countQ, listQ := r.q.countAll, r.q.listAll
	var args []any
	if !scope.All {
		countQ, listQ = r.q.countOwner, r.q.listOwner
		args = append(args, scope.OwnerID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, listQ, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Resource, 0)
	for rows.Next() {
		res, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
