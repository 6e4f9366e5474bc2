package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iliyamo/eventdesk/internal/metrics"
	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/policy"
	"github.com/iliyamo/eventdesk/internal/queue"
	"github.com/iliyamo/eventdesk/internal/utils"
)

// Recovery runs the password reset flow: a reset token is mailed to the
// principal and later exchanged for a new password.
type Recovery struct {
	accounts *Accounts
	codec    *utils.ResetCodec
	log      *slog.Logger
}

// NewRecovery builds the recovery flow for the variant served by accounts.
// Mail goes through the notifier and mailer accounts was built with.
func NewRecovery(accounts *Accounts, codec *utils.ResetCodec, logger *slog.Logger) *Recovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recovery{
		accounts: accounts,
		codec:    codec,
		log:      logger.With("variant", string(accounts.Variant())),
	}
}

func (r *Recovery) variant() model.Variant { return r.accounts.Variant() }

func (r *Recovery) message(ctx context.Context, email string) (*model.Principal, queue.MailMessage, error) {
	p, err := r.accounts.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, queue.MailMessage{}, fromStore(err, string(r.variant()))
	}
	token, _, err := r.codec.Issue(p.Email, r.variant().ResetPurpose())
	if err != nil {
		return nil, queue.MailMessage{}, err
	}
	msg, err := r.accounts.cfg.Mailer.Recovery(r.variant(), p.Email, token, r.codec.TTL())
	if err != nil {
		return nil, queue.MailMessage{}, err
	}
	return p, msg, nil
}

// Request mails a reset link to email.
func (r *Recovery) Request(ctx context.Context, email string) error {
	if r.accounts.notifier == nil {
		return newError(ErrUnavailable, "password recovery mail is not configured")
	}
	p, msg, err := r.message(ctx, email)
	if err != nil {
		return err
	}
	if err := r.accounts.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("queue recovery mail: %w", err)
	}
	r.log.Info("password recovery requested", "id", p.ID)
	return nil
}

// Reset exchanges a reset token for a new password.
func (r *Recovery) Reset(ctx context.Context, token, newPassword string) error {
	email, err := r.codec.Resolve(token, r.variant().ResetPurpose())
	if err != nil {
		reason := utils.TokenFailureKind(err)
		r.log.Info("reset token rejected", "reason", reason)
		metrics.AuthFailure(string(r.variant()), "reset_"+reason)
		return ErrInvalidResetToken
	}
	p, err := r.accounts.store.FindByEmail(ctx, email)
	if err != nil {
		return fromStore(err, string(r.variant()))
	}
	if !p.IsActive {
		return newError(ErrInvalid, "inactive %s", r.variant())
	}
	hash, err := r.accounts.hash(newPassword)
	if err != nil {
		return err
	}
	p.PasswordHash = hash
	if err := r.accounts.store.Update(ctx, p); err != nil {
		return fromStore(err, string(r.variant()))
	}
	r.log.Info("password reset", "id", p.ID)
	return nil
}

// Preview renders the recovery mail for email without sending it.
// Privileged actors only.
func (r *Recovery) Preview(ctx context.Context, actor *model.Principal, email string) (string, string, error) {
	if !policy.CanAdminister(actor) {
		r.accounts.deny(actor, "recovery_mail", policy.ActionRead)
		return "", "", fromPolicy(policy.ErrForbidden)
	}
	_, msg, err := r.message(ctx, email)
	if err != nil {
		return "", "", err
	}
	return msg.Subject, msg.HTML, nil
}
