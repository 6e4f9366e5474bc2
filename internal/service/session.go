package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/eventdesk/internal/metrics"
	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/repository"
	"github.com/iliyamo/eventdesk/internal/utils"
)

// Sessions issues session tokens at login and turns bearer tokens back into
// principals.
type Sessions struct {
	accounts *Accounts
	codec    *utils.SessionCodec
	ttl      time.Duration
	log      *slog.Logger
}

// NewSessions wires a session resolver for the variant served by accounts.
func NewSessions(accounts *Accounts, codec *utils.SessionCodec, ttl time.Duration, logger *slog.Logger) *Sessions {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sessions{
		accounts: accounts,
		codec:    codec,
		ttl:      ttl,
		log:      logger.With("variant", string(accounts.Variant())),
	}
}

// Variant reports which hierarchy tokens are issued for.
func (s *Sessions) Variant() model.Variant { return s.accounts.Variant() }

// Login authenticates email/password and issues a session token.
func (s *Sessions) Login(ctx context.Context, email, password string) (utils.AccessToken, *model.Principal, error) {
	p, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return utils.AccessToken{}, nil, err
	}
	tok, err := s.codec.Issue(s.Variant(), p.ID, s.ttl)
	if err != nil {
		return utils.AccessToken{}, nil, err
	}
	metrics.Login(string(s.Variant()))
	s.log.Info("login", "id", p.ID)
	return tok, p, nil
}

// Resolve validates raw and loads the principal it names.  Every rejection
// is ErrUnauthenticated; the underlying reason is logged and counted.
func (s *Sessions) Resolve(ctx context.Context, raw string) (*model.Principal, error) {
	id, err := s.codec.Resolve(raw, s.Variant())
	if err != nil {
		return nil, s.reject(utils.TokenFailureKind(err))
	}
	p, err := s.accounts.store.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, s.reject("deleted")
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, s.reject("inactive")
	}
	return p, nil
}

func (s *Sessions) reject(reason string) error {
	s.log.Info("session rejected", "reason", reason)
	metrics.AuthFailure(string(s.Variant()), reason)
	return ErrUnauthenticated
}
