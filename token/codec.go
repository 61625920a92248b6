package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
	"github.com/L-Aguilar/microsaas-sub003/users"
)

// Codec mints and verifies signed bearer tokens. It is stateless: a pure
// function of the keyring and the clock. Revocation lives elsewhere.
type Codec struct {
	keyring *Keyring
	issuer  string
	expiry  time.Duration
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(keyring *Keyring, issuer string, expiry time.Duration, options ...CodecOption) (*Codec, error) {
	if keyring == nil {
		return nil, errors.New("[NewCodec] keyring is required")
	}
	if expiry <= 0 {
		return nil, errors.New("[NewCodec] expiry must be positive")
	}

	c := &Codec{
		keyring: keyring,
		issuer:  issuer,
		expiry:  expiry,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Mint creates a signed bearer token for the principal. The kid of the
// active signing key is embedded in the header.
func (c *Codec) Mint(principal *users.Principal) (string, *Claims, error) {
	now := c.nowFunc()
	claims := &Claims{
		Role:     principal.Role,
		TenantID: principal.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   principal.ID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.expiry)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	t.Header["kid"] = c.keyring.ActiveKeyID()

	signed, err := t.SignedString(c.keyring.SigningKey())
	if err != nil {
		return "", nil, errors.Wrap(err, "[Codec.Mint] SignedString")
	}
	return signed, claims, nil
}

// Verify parses and validates a bearer token. Failures collapse to
// apperrors.ErrTokenExpired or apperrors.ErrTokenMalformed; callers must not
// learn more than that.
func (c *Codec) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, apperrors.ErrTokenMissing
	}

	claims := &Claims{}
	t, err := jwt.ParseWithClaims(raw, claims, c.keyring.GetVerificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenMalformed
	}
	if !t.Valid || claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, apperrors.ErrTokenMalformed
	}
	return claims, nil
}
