package utils // package utils provides the secret hasher and the signed token codecs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/eventdesk/internal/model"
)

// AccessToken represents a signed JWT session token along with its expiry.
// Session tokens are not persisted anywhere; the signature and the exp
// claim are the only things that make them valid.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// sessionClaims binds a token to one principal of one variant.  Kind keeps a
// user token from resolving on the organizer side (ids overlap between the
// two tables).
type sessionClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// CodecOption customizes a token codec.
type CodecOption func(*codecConfig)

type codecConfig struct {
	now func() time.Time
}

// WithClock replaces time.Now as the codec's notion of the current time.
func WithClock(now func() time.Time) CodecOption {
	return func(c *codecConfig) {
		if now != nil {
			c.now = now
		}
	}
}

func buildConfig(opts []CodecOption) codecConfig {
	cfg := codecConfig{now: time.Now}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// SessionCodec issues and resolves HS256 session tokens.  The secret is
// captured once at construction and never changes afterwards.
type SessionCodec struct {
	secret []byte
	now    func() time.Time
}

// NewSessionCodec builds a codec signing with the given process-wide secret.
func NewSessionCodec(secret string, opts ...CodecOption) *SessionCodec {
	cfg := buildConfig(opts)
	return &SessionCodec{secret: []byte(secret), now: cfg.now}
}

// Issue signs a token for subjectID valid for ttl.
func (c *SessionCodec) Issue(variant model.Variant, subjectID uint64, ttl time.Duration) (AccessToken, error) {
	if !variant.Valid() {
		return AccessToken{}, fmt.Errorf("unknown variant %q", variant)
	}
	if subjectID == 0 {
		return AccessToken{}, errors.New("subject is required")
	}
	if ttl <= 0 {
		return AccessToken{}, errors.New("ttl must be greater than zero")
	}
	now := c.now().UTC()
	exp := expiresAt(now, ttl)
	claims := sessionClaims{
		Kind: string(variant),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign token: %w", err)
	}
	return AccessToken{Token: signed, Exp: exp.Time}, nil
}

// Resolve verifies raw and returns the subject id it was issued for.  The
// error is ErrTokenExpired for a well-signed but stale token and
// ErrTokenMalformed for everything else, including a token minted for the
// other variant.
func (c *SessionCodec) Resolve(raw string, variant model.Variant) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrTokenMalformed
	}
	claims := &sessionClaims{}
	if err := parseHS256(raw, claims, c.secret, c.now); err != nil {
		return 0, err
	}
	if claims.Kind != string(variant) {
		return 0, fmt.Errorf("%w: issued for %q", ErrTokenMalformed, claims.Kind)
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: bad subject", ErrTokenMalformed)
	}
	return id, nil
}

// parseHS256 verifies signature and registered time claims, folding the
// library's errors into the package's failure kinds.
// expiresAt rounds now+ttl up to the whole second, the precision of the exp
// claim, so a token never expires before its full ttl has elapsed.
func expiresAt(now time.Time, ttl time.Duration) *jwt.NumericDate {
	exp := now.Add(ttl)
	if t := exp.Truncate(time.Second); !t.Equal(exp) {
		exp = t.Add(time.Second)
	}
	return jwt.NewNumericDate(exp)
}

func parseHS256(raw string, claims jwt.Claims, secret []byte, now func() time.Time) error {
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (interface{}, error) {
			// Reject anything that is not HMAC; the alg header is attacker controlled.
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrTokenMalformed
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err == nil {
		return nil
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
}
