package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purposes a signed link can carry. A token minted for one never verifies
// as the other.
const (
	PurposeVerifyEmail   = "verify-email"
	PurposeResetPassword = "reset-password"
)

var ErrInvalidToken = errors.New("invalid or expired link")

type Claims struct {
	Purpose     string `json:"purpose"`
	Fingerprint string `json:"fp,omitempty"`
	jwt.RegisteredClaims
}

// Signer mints and checks the HS256 tokens embedded in emailed links.
type Signer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSigner(key string, ttl time.Duration) *Signer {
	return &Signer{key: []byte(key), ttl: ttl, now: time.Now}
}

// TTL is how long a signed link stays valid.
func (s *Signer) TTL() time.Duration { return s.ttl }

// Sign returns a token for subject. The fingerprint binds the token to state
// that must not change before it is used.
func (s *Signer) Sign(purpose, subject, fingerprint string) (string, error) {
	now := s.now()
	claims := Claims{
		Purpose:     purpose,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *Signer) Verify(token, purpose string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// Fingerprint is a short digest of v for [Signer.Sign].
func Fingerprint(v string) string {
	sum := sha256.Sum256([]byte(v))
	return hex.EncodeToString(sum[:8])
}
