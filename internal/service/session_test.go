package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/eventdesk/internal/model"
	"github.com/iliyamo/eventdesk/internal/utils"
)

func TestLoginAndResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.VariantUser)
	u := f.signup(t, "u@x.com", false)

	tok, p, err := f.sessions.Login(ctx, "u@x.com", "pw-u@x.com")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if p.ID != u.ID || !tok.Exp.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("unexpected login result: %+v exp=%v", p, tok.Exp)
	}
	got, err := f.sessions.Resolve(ctx, tok.Token)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != u.ID || got.Email != "u@x.com" {
		t.Fatalf("resolved wrong principal: %+v", got)
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.VariantUser)
	f.signup(t, "u@x.com", false)

	if _, _, err := f.sessions.Login(ctx, "u@x.com", "nope"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestResolveRejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, model.VariantUser)
	admin := f.signup(t, "admin@x.com", true)
	u := f.signup(t, "u@x.com", false)
	tok, _, err := f.sessions.Login(ctx, "u@x.com", "pw-u@x.com")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	t.Run("garbage", func(t *testing.T) {
		if _, err := f.sessions.Resolve(ctx, "not-a-token"); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("other variant", func(t *testing.T) {
		orgs := newFixture(t, model.VariantOrganizer)
		orgs.signup(t, "u@x.com", false) // same id (1) exists on the organizer side
		if _, err := orgs.sessions.Resolve(ctx, tok.Token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("user token accepted by organizer resolver: %v", err)
		}
	})

	t.Run("reset token", func(t *testing.T) {
		reset, _, err := utils.NewResetCodec(testSecret, time.Hour, utils.WithClock(func() time.Time { return testNow })).
			Issue("u@x.com", model.VariantUser.ResetPurpose())
		if err != nil {
			t.Fatalf("issue reset: %v", err)
		}
		if _, err := f.sessions.Resolve(ctx, reset); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("reset token accepted as session: %v", err)
		}
	})

	t.Run("inactive", func(t *testing.T) {
		if _, err := f.accounts.Update(ctx, admin, u.ID, Changes{IsActive: ptr(false)}); err != nil {
			t.Fatalf("deactivate: %v", err)
		}
		if _, err := f.sessions.Resolve(ctx, tok.Token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})

	t.Run("deleted", func(t *testing.T) {
		if err := f.accounts.Delete(ctx, admin, u.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := f.sessions.Resolve(ctx, tok.Token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("token of deleted principal accepted: %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		adminTok, _, err := f.sessions.Login(ctx, "admin@x.com", "pw-admin@x.com")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		f.now = testNow.Add(time.Hour + time.Second)
		defer func() { f.now = testNow }()
		if _, err := f.sessions.Resolve(ctx, adminTok.Token); !errors.Is(err, ErrUnauthenticated) {
			t.Fatalf("expired token accepted: %v", err)
		}
	})
}
