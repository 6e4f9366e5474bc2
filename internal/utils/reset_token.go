package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultResetTTL is used when NewResetCodec is given a non-positive ttl.
const DefaultResetTTL = 48 * time.Hour

type resetClaims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// ResetCodec issues purpose-scoped password reset tokens.  Tokens are
// stateless: nothing records that one was used, so a token can be replayed
// until it expires.
type ResetCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetCodec builds a codec signing with the process-wide secret.
func NewResetCodec(secret string, ttl time.Duration, opts ...CodecOption) *ResetCodec {
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	cfg := buildConfig(opts)
	return &ResetCodec{secret: []byte(secret), ttl: ttl, now: cfg.now}
}

// TTL reports how long issued tokens stay valid.
func (c *ResetCodec) TTL() time.Duration { return c.ttl }

// Issue returns a token binding email to purpose and its expiry.
func (c *ResetCodec) Issue(email, purpose string) (string, time.Time, error) {
	email = strings.TrimSpace(email)
	if email == "" || purpose == "" {
		return "", time.Time{}, errors.New("email and purpose are required")
	}
	now := c.now().UTC()
	exp := expiresAt(now, c.ttl)
	claims := resetClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign reset token: %w", err)
	}
	return signed, exp.Time, nil
}

// Resolve returns the email a token was issued for, provided it carries
// expectedPurpose.  Session tokens carry no purpose and never resolve here.
func (c *ResetCodec) Resolve(raw, expectedPurpose string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrTokenMalformed
	}
	claims := &resetClaims{}
	if err := parseHS256(raw, claims, c.secret, c.now); err != nil {
		return "", err
	}
	if claims.Purpose != expectedPurpose {
		return "", ErrPurposeMismatch
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("%w: bad subject", ErrTokenMalformed)
	}
	return claims.Subject, nil
}
