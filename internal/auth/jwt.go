package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the token body: subject is the user id, rol the role name.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"rol"`
}

// UserID parses the numeric subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("bad subject %q", c.Subject)
	}
	return uint(id), nil
}

// Signer issues and verifies HS256 tokens with a server-held secret.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("signing secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Signer{secret: []byte(secret), ttl: ttl}, nil
}

func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign mints a token for userID issued at now. The returned expiry is
// now+TTL; the token's exp claim is the same instant at second precision.
func (s *Signer) Sign(userID uint, role string, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Role: role,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return tok, exp, nil
}

// Verify checks signature, algorithm and expiry as of now.
func (s *Signer) Verify(raw string, now time.Time) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return nil, err
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid claims")
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	if claims.Role == "" {
		return nil, errors.New("missing role")
	}
	return claims, nil
}
