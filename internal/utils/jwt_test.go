package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/eventdesk/internal/model"
)

const testSecret = "test-secret"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func TestSessionTokenRoundTrip(t *testing.T) {
	clock := newClock()
	codec := NewSessionCodec(testSecret, WithClock(clock.Now))

	tok, err := codec.Issue(model.VariantUser, 42, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if !tok.Exp.Equal(clock.t.Add(time.Hour)) {
		t.Fatalf("unexpected expiry: %v", tok.Exp)
	}
	id, err := codec.Resolve(tok.Token, model.VariantUser)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if id != 42 {
		t.Fatalf("unexpected subject: %d", id)
	}
}

func TestSessionTokenExpiryBoundary(t *testing.T) {
	clock := newClock()
	codec := NewSessionCodec(testSecret, WithClock(clock.Now))
	ttl := 30 * time.Minute

	tok, err := codec.Issue(model.VariantOrganizer, 7, ttl)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	issued := clock.t

	clock.t = issued.Add(ttl - time.Second)
	if _, err := codec.Resolve(tok.Token, model.VariantOrganizer); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	clock.t = issued.Add(ttl + time.Second)
	if _, err := codec.Resolve(tok.Token, model.VariantOrganizer); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired just after expiry, got %v", err)
	}
}

func TestSessionTokenExpiryWithFractionalIssueTime(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 2, 3, 4, 5, 900_000_000, time.UTC)}
	codec := NewSessionCodec(testSecret, WithClock(clock.Now))

	tok, err := codec.Issue(model.VariantUser, 2, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	issued := clock.t
	if tok.Exp.Before(issued.Add(time.Hour)) {
		t.Fatalf("exp %v is earlier than issue time plus ttl", tok.Exp)
	}

	clock.t = issued.Add(time.Hour - 500*time.Millisecond)
	if _, err := codec.Resolve(tok.Token, model.VariantUser); err != nil {
		t.Fatalf("expected token valid just before expiry, got %v", err)
	}

	clock.t = issued.Add(time.Hour + 2*time.Second)
	if _, err := codec.Resolve(tok.Token, model.VariantUser); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired after expiry, got %v", err)
	}
}

func TestSessionTokenMalformed(t *testing.T) {
	codec := NewSessionCodec(testSecret)
	other := NewSessionCodec("another-secret")

	forged, err := other.Issue(model.VariantUser, 1, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	cases := map[string]string{
		"empty":        "",
		"garbage":      "not.a.jwt",
		"wrong secret": forged.Token,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Resolve(raw, model.VariantUser)
			if !errors.Is(err, ErrTokenMalformed) {
				t.Fatalf("expected ErrTokenMalformed, got %v", err)
			}
		})
	}
}

func TestSessionTokenRejectsOtherVariant(t *testing.T) {
	codec := NewSessionCodec(testSecret)
	tok, err := codec.Issue(model.VariantUser, 5, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := codec.Resolve(tok.Token, model.VariantOrganizer); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected user token to be rejected for organizers, got %v", err)
	}
}

func TestSessionTokenRejectsNoneAlgorithm(t *testing.T) {
	claims := sessionClaims{
		Kind: string(model.VariantUser),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	codec := NewSessionCodec(testSecret)
	if _, err := codec.Resolve(raw, model.VariantUser); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("expected alg=none token to be rejected, got %v", err)
	}
}

func TestSessionTokenIssueValidation(t *testing.T) {
	codec := NewSessionCodec(testSecret)
	if _, err := codec.Issue(model.VariantUser, 0, time.Hour); err == nil {
		t.Fatal("expected error for zero subject")
	}
	if _, err := codec.Issue(model.VariantUser, 1, 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
	if _, err := codec.Issue(model.Variant("admin"), 1, time.Hour); err == nil {
		t.Fatal("expected error for unknown variant")
	}
}

func TestSessionTokenSignatureIsDeterministic(t *testing.T) {
	clock := newClock()
	codec := NewSessionCodec(testSecret, WithClock(clock.Now))
	a, err := codec.Issue(model.VariantUser, 9, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, err := codec.Issue(model.VariantUser, 9, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if a.Token != b.Token {
		t.Fatal("same subject, ttl and clock should produce the same token")
	}
	if strings.Count(a.Token, ".") != 2 {
		t.Fatalf("unexpected token shape: %s", a.Token)
	}
}

func TestTokenFailureKind(t *testing.T) {
	cases := map[error]string{
		ErrTokenExpired:    "expired",
		ErrTokenMalformed:  "malformed",
		ErrPurposeMismatch: "purpose_mismatch",
		errors.New("x"):    "other",
	}
	for err, want := range cases {
		if got := TokenFailureKind(err); got != want {
			t.Fatalf("TokenFailureKind(%v) = %q, want %q", err, got, want)
		}
	}
}
