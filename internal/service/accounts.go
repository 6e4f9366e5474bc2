package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/iliyamo/eventdesk/internal/metrics"
	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/policy"
	"github.com/iliyamo/eventdesk/internal/repository"
	"github.com/iliyamo/eventdesk/internal/utils"
)

// AccountsConfig holds the settings the lifecycle manager reads once at
// startup.
type AccountsConfig struct {
	BcryptCost       int
	OpenRegistration bool
	Mailer           Mailer
}

// SignupInput describes a principal to create.  IsActive defaults to true.
type SignupInput struct {
	Email        string
	Password     string
	FullName     *string
	IsActive     *bool
	IsPrivileged bool
}

// Changes is a partial update; nil fields are left alone.
type Changes struct {
	Email        *string
	Password     *string
	FullName     *string
	IsActive     *bool
	IsPrivileged *bool
}

// privileged reports whether c holds fields only an administrator may set.
// Everyone else changes their password through UpdateSecret.
func (c Changes) privileged() bool {
	return c.IsActive != nil || c.IsPrivileged != nil || c.Password != nil
}

// Accounts is the principal lifecycle manager for one variant.
type Accounts struct {
	variant  model.Variant
	store    PrincipalStore
	cfg      AccountsConfig
	notifier Notifier
	log      *slog.Logger
}

// NewAccounts builds the lifecycle manager over store.  notifier may be nil,
// in which case no mail is sent.
func NewAccounts(store PrincipalStore, cfg AccountsConfig, notifier Notifier, logger *slog.Logger) *Accounts {
	if logger == nil {
		logger = slog.Default()
	}
	v := store.Variant()
	return &Accounts{
		variant:  v,
		store:    store,
		cfg:      cfg,
		notifier: notifier,
		log:      logger.With("variant", string(v)),
	}
}

// Variant reports which hierarchy this manager serves.
func (a *Accounts) Variant() model.Variant { return a.variant }

func (a *Accounts) hash(plain string) (string, error) {
	h, err := utils.HashPassword(plain, a.cfg.BcryptCost)
	if err != nil {
		return "", newError(ErrInvalid, "invalid password: %v", err)
	}
	return h, nil
}

// Signup creates a principal.  A second principal with the same email in
// this variant fails with ErrConflict.
func (a *Accounts) Signup(ctx context.Context, in SignupInput) (*model.Principal, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, newError(ErrInvalid, "email is required")
	}
	hash, err := a.hash(in.Password)
	if err != nil {
		return nil, err
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	p := &model.Principal{
		Variant:      a.variant,
		Email:        email,
		PasswordHash: hash,
		FullName:     in.FullName,
		IsActive:     active,
		IsPrivileged: in.IsPrivileged,
	}
	if err := a.store.Create(ctx, p); err != nil {
		return nil, fromStore(err, string(a.variant))
	}
	a.log.Info("principal created", "id", p.ID, "privileged", p.IsPrivileged)
	return p, nil
}

// Create is the administrative signup: only privileged actors may call it,
// and the new principal is sent a welcome mail when mail is configured.
func (a *Accounts) Create(ctx context.Context, actor *model.Principal, in SignupInput) (*model.Principal, error) {
	if !policy.CanAdminister(actor) {
		a.deny(actor, "principal", policy.ActionUpdate)
		return nil, fromPolicy(policy.ErrForbidden)
	}
	p, err := a.Signup(ctx, in)
	if err != nil {
		return nil, err
	}
	a.notifyNewAccount(ctx, p)
	return p, nil
}

// SignupOpen is self-registration.  Privilege and activity flags cannot be
// chosen by the caller.
func (a *Accounts) SignupOpen(ctx context.Context, email, password string, fullName *string) (*model.Principal, error) {
	if !a.cfg.OpenRegistration {
		return nil, ErrRegistrationClosed
	}
	return a.Signup(ctx, SignupInput{Email: email, Password: password, FullName: fullName})
}

// Update applies ch to the principal targetID on behalf of actor.
func (a *Accounts) Update(ctx context.Context, actor *model.Principal, targetID uint64, ch Changes) (*model.Principal, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	// Non-privileged actors learn nothing about other ids, present or not.
	if err := policy.CheckRead(actor, targetID); err != nil {
		a.deny(actor, "principal", policy.ActionUpdate)
		return nil, fromPolicy(err)
	}
	if ch.privileged() && !policy.CanAdminister(actor) {
		a.deny(actor, "principal", policy.ActionUpdate)
		return nil, fromPolicy(policy.ErrForbidden)
	}
	target, err := a.store.FindByID(ctx, targetID)
	if err != nil {
		return nil, fromStore(err, string(a.variant))
	}
	if err := policy.CheckPrincipal(actor, target, policy.ActionUpdate); err != nil {
		a.deny(actor, "principal", policy.ActionUpdate)
		return nil, fromPolicy(err)
	}

	if ch.Email != nil {
		email := strings.TrimSpace(*ch.Email)
		if email == "" {
			return nil, newError(ErrInvalid, "email is required")
		}
		target.Email = email
	}
	if ch.Password != nil {
		hash, err := a.hash(*ch.Password)
		if err != nil {
			return nil, err
		}
		target.PasswordHash = hash
	}
	if ch.FullName != nil {
		target.FullName = ch.FullName
	}
	if ch.IsActive != nil {
		target.IsActive = *ch.IsActive
	}
	if ch.IsPrivileged != nil {
		target.IsPrivileged = *ch.IsPrivileged
	}
	if err := a.store.Update(ctx, target); err != nil {
		return nil, fromStore(err, string(a.variant))
	}
	a.log.Info("principal updated", "id", target.ID, "actor", actor.ID)
	return target, nil
}

// UpdateSecret changes actor's own password after checking the current one.
func (a *Accounts) UpdateSecret(ctx context.Context, actor *model.Principal, current, next string) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	p, err := a.store.FindByID(ctx, actor.ID)
	if err != nil {
		return fromStore(err, string(a.variant))
	}
	if !utils.VerifyPassword(p.PasswordHash, current) {
		return ErrIncorrectPassword
	}
	if current == next {
		return ErrSamePassword
	}
	hash, err := a.hash(next)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	if err := a.store.Update(ctx, p); err != nil {
		return fromStore(err, string(a.variant))
	}
	a.log.Info("password changed", "id", p.ID)
	return nil
}

// Delete removes targetID and everything it owns.
func (a *Accounts) Delete(ctx context.Context, actor *model.Principal, targetID uint64) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	target, err := a.store.FindByID(ctx, targetID)
	if err != nil {
		return fromStore(err, string(a.variant))
	}
	if err := policy.CheckPrincipal(actor, target, policy.ActionDelete); err != nil {
		a.deny(actor, "principal", policy.ActionDelete)
		return fromPolicy(err)
	}
	if err := a.store.DeleteCascade(ctx, targetID); err != nil {
		return fromStore(err, string(a.variant))
	}
	a.log.Info("principal deleted", "id", targetID, "actor", actor.ID)
	return nil
}

// Get returns principal id as seen by actor.
func (a *Accounts) Get(ctx context.Context, actor *model.Principal, id uint64) (*model.Principal, error) {
	if actor == nil {
		return nil, ErrUnauthenticated
	}
	if err := policy.CheckRead(actor, id); err != nil {
		a.deny(actor, "principal", policy.ActionRead)
		return nil, fromPolicy(err)
	}
	p, err := a.store.FindByID(ctx, id)
	if err != nil {
		return nil, fromStore(err, string(a.variant))
	}
	return p, nil
}

// List returns one page of principals.  Privileged actors only.
func (a *Accounts) List(ctx context.Context, actor *model.Principal, offset, limit int) ([]*model.Principal, int, error) {
	if !policy.CanAdminister(actor) {
		a.deny(actor, "principal", policy.ActionRead)
		return nil, 0, fromPolicy(policy.ErrForbidden)
	}
	offset, limit = NormalizePage(offset, limit)
	return a.store.List(ctx, offset, limit)
}

// Bootstrap makes sure the first privileged principal exists.  It reports
// whether a principal was created.
func (a *Accounts) Bootstrap(ctx context.Context, email, password string) (bool, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return false, nil
	}
	_, err := a.store.FindByEmail(ctx, email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}
	_, err = a.Signup(ctx, SignupInput{Email: email, Password: password, IsPrivileged: true})
	if errors.Is(err, ErrConflict) {
		// Another instance won the race.
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Authenticate checks an email/password pair.  Unknown emails and wrong
// passwords produce the same error.
func (a *Accounts) Authenticate(ctx context.Context, email, password string) (*model.Principal, error) {
	p, err := a.store.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		a.authFailure("unknown_email")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.VerifyPassword(p.PasswordHash, password) {
		a.authFailure("bad_password")
		return nil, ErrInvalidCredentials
	}
	if !p.IsActive {
		a.authFailure("inactive")
		return nil, newError(ErrInvalid, "inactive %s", a.variant)
	}
	return p, nil
}

func (a *Accounts) notifyNewAccount(ctx context.Context, p *model.Principal) {
	if a.notifier == nil {
		return
	}
	msg, err := a.cfg.Mailer.NewAccount(a.variant, p.Email)
	if err == nil {
		err = a.notifier.Send(ctx, msg)
	}
	if err != nil {
		// The account exists either way; a lost welcome mail is not fatal.
		a.log.Warn("new account mail not sent", "id", p.ID, "err", err)
	}
}

func (a *Accounts) deny(actor *model.Principal, target string, action policy.Action) {
	var id uint64
	if actor != nil {
		id = actor.ID
	}
	a.log.Info("access denied", "actor", id, "target", target, "action", action.String())
	metrics.Denied(string(a.variant), target, action.String())
}

func (a *Accounts) authFailure(reason string) {
	a.log.Info("login rejected", "reason", reason)
	metrics.AuthFailure(string(a.variant), reason)
}
