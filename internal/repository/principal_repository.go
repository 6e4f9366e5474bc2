package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/eventdesk/internal/model"
)

// PrincipalRepo is the credential store for one variant.  Both variants
// share the same column layout and differ only in table and flag names, so
// the statements are rendered once at construction.
type PrincipalRepo struct {
	db      *sql.DB
	variant model.Variant
	q       principalQueries
}

type principalQueries struct {
	selectByEmail   string
	selectByID      string
	lockByEmail     string
	lockOtherEmail  string
	lockByID        string
	insert          string
	update          string
	deleteResources string
	deletePrincipal string
	count           string
	list            string
}

// NewPrincipalRepo returns the store for principals of variant v.
func NewPrincipalRepo(db *sql.DB, v model.Variant) *PrincipalRepo {
	t := v.PrincipalTable()
	cols := fmt.Sprintf("id, email, password_hash, full_name, is_active, %s, created_at, updated_at", v.PrivilegedField())
	return &PrincipalRepo{
		db:      db,
		variant: v,
		q: principalQueries{
			selectByEmail:   fmt.Sprintf("SELECT %s FROM %s WHERE email = ? LIMIT 1", cols, t),
			selectByID:      fmt.Sprintf("SELECT %s FROM %s WHERE id = ? LIMIT 1", cols, t),
			lockByEmail:     fmt.Sprintf("SELECT id FROM %s WHERE email = ? FOR UPDATE", t),
			lockOtherEmail:  fmt.Sprintf("SELECT id FROM %s WHERE email = ? AND id <> ? FOR UPDATE", t),
			lockByID:        fmt.Sprintf("SELECT id FROM %s WHERE id = ? FOR UPDATE", t),
			insert:          fmt.Sprintf("INSERT INTO %s (email, password_hash, full_name, is_active, %s) VALUES (?,?,?,?,?)", t, v.PrivilegedField()),
			update:          fmt.Sprintf("UPDATE %s SET email = ?, password_hash = ?, full_name = ?, is_active = ?, %s = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", t, v.PrivilegedField()),
			deleteResources: fmt.Sprintf("DELETE FROM %s WHERE owner_id = ?", v.ResourceTable()),
			deletePrincipal: fmt.Sprintf("DELETE FROM %s WHERE id = ?", t),
			count:           fmt.Sprintf("SELECT COUNT(*) FROM %s", t),
			list:            fmt.Sprintf("SELECT %s FROM %s ORDER BY id LIMIT ? OFFSET ?", cols, t),
		},
	}
}

// Variant reports which hierarchy this store serves.
func (r *PrincipalRepo) Variant() model.Variant { return r.variant }

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PrincipalRepo) scan(row rowScanner) (*model.Principal, error) {
	var (
		p        model.Principal
		fullName sql.NullString
	)
	if err := row.Scan(&p.ID, &p.Email, &p.PasswordHash, &fullName, &p.IsActive, &p.IsPrivileged, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.Variant = r.variant
	if fullName.Valid {
		name := fullName.String
		p.FullName = &name
	}
	return &p, nil
}

// FindByEmail fetches a principal by its exact email.
func (r *PrincipalRepo) FindByEmail(ctx context.Context, email string) (*model.Principal, error) {
	p, err := r.scan(r.db.QueryRowContext(ctx, r.q.selectByEmail, strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// FindByID fetches a principal by id.
func (r *PrincipalRepo) FindByID(ctx context.Context, id uint64) (*model.Principal, error) {
	p, err := r.scan(r.db.QueryRowContext(ctx, r.q.selectByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

// Create inserts p and fills in its ID.  The email check and the insert run
// in one transaction with the candidate row locked, so two concurrent
// signups for the same email cannot both pass; the unique index is the last
// line and is reported the same way.
func (r *PrincipalRepo) Create(ctx context.Context, p *model.Principal) error {
	p.Email = strings.TrimSpace(p.Email)
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var existing uint64
		err := tx.QueryRowContext(ctx, r.q.lockByEmail, p.Email).Scan(&existing)
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		res, err := tx.ExecContext(ctx, r.q.insert, p.Email, p.PasswordHash, nullString(p.FullName), p.IsActive, p.IsPrivileged)
		if err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		p.ID = uint64(id)
		p.Variant = r.variant
		return nil
	})
}

// Update persists every mutable column of p.  If the email is taken by a
// different principal of the same variant, ErrConflict is returned and
// nothing is written.
func (r *PrincipalRepo) Update(ctx context.Context, p *model.Principal) error {
	p.Email = strings.TrimSpace(p.Email)
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var id uint64
		if err := tx.QueryRowContext(ctx, r.q.lockByID, p.ID).Scan(&id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		var other uint64
		err := tx.QueryRowContext(ctx, r.q.lockOtherEmail, p.Email, p.ID).Scan(&other)
		if err == nil {
			return ErrConflict
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if _, err := tx.ExecContext(ctx, r.q.update, p.Email, p.PasswordHash, nullString(p.FullName), p.IsActive, p.IsPrivileged, p.ID); err != nil {
			if isDuplicate(err) {
				return ErrConflict
			}
			return err
		}
		return nil
	})
}

// DeleteCascade removes the principal and every resource it owns in a
// single transaction.  Either both disappear or neither does.
func (r *PrincipalRepo) DeleteCascade(ctx context.Context, id uint64) error {
	return inTx(ctx, r.db, func(tx *sql.Tx) error {
		var locked uint64
		if err := tx.QueryRowContext(ctx, r.q.lockByID, id).Scan(&locked); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, r.q.deleteResources, id); err != nil {
			return fmt.Errorf("delete owned %ss: %w", r.variant.ResourceName(), err)
		}
		if _, err := tx.ExecContext(ctx, r.q.deletePrincipal, id); err != nil {
			return fmt.Errorf("delete %s: %w", r.variant, err)
		}
		return nil
	})
}

// Count returns the number of principals of this variant.
func (r *PrincipalRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, r.q.count).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// List returns one page of principals ordered by id plus the total count.
func (r *PrincipalRepo) List(ctx context.Context, offset, limit int) ([]*model.Principal, int, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, r.q.list, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]*model.Principal, 0)
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
