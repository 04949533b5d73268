package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TTL is the fixed lifetime of an issued token.
const TTL = 24 * time.Hour

// secretBytes of random data encode to a 64-character URL-safe secret.
const secretBytes = 48

var (
	ErrMalformed    = errors.New("malformed token")
	ErrBadSignature = errors.New("invalid token signature")
	ErrExpired      = errors.New("token expired")
)

// Claims are the fields embedded in every issued token. IssuedAt is unix
// milliseconds and is NOT a standard NumericDate: the library must never
// validate it (iat validation stays disabled), it is only compared against
// the revocation watermark. Expiry is standard unix seconds and drives the
// built-in expiry check during Verify.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IssuedAt int64  `json:"iat"`
	Expiry   int64  `json:"exp"`
}

func (c Claims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Expiry == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Expiry, 0)), nil
}

func (c Claims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c Claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c Claims) GetIssuer() (string, error)              { return "", nil }
func (c Claims) GetSubject() (string, error)             { return "", nil }
func (c Claims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// Issue signs a token for the user with their current secret.
func Issue(username, email, role, secret string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		Email:    email,
		Role:     role,
		IssuedAt: now.UnixMilli(),
		Expiry:   now.Add(TTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// Decode extracts claims without checking the signature. It only exists to
// discover which user's secret to verify against.
func Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, ErrMalformed
	}
	return claims, nil
}

// Verify checks the signature against secret and the built-in expiry.
func Verify(raw, secret string) error {
	_, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err == nil {
		return nil
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrExpired
	}
	return ErrBadSignature
}

// NewSecret returns a fresh signing secret. Replacing a user's stored
// secret invalidates every token signed with the previous one.
func NewSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
