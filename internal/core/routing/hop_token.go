package routing

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"agentmart/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
)

const hopIssuer = "agentmart-edge"

var ErrInvalidHopToken = errors.New("invalid hop token")

// HopClaims carries the remaining redirect budget of a redirect chain.
type HopClaims struct {
	Remaining int `json:"hops"`
	jwt.RegisteredClaims
}

// HopSigner mints and verifies the short-lived tokens embedded in
// dashboard redirects.
type HopSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHopSigner uses a random per-process secret when secret is empty;
// tokens then only verify on the instance that issued them.
func NewHopSigner(secret string, ttl time.Duration) (*HopSigner, error) {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate hop secret: %w", err)
		}
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &HopSigner{secret: key, ttl: ttl, now: time.Now}, nil
}

func (s *HopSigner) WithClock(now func() time.Time) *HopSigner {
	cp := *s
	cp.now = now
	return &cp
}

func (s *HopSigner) Sign(subject domain.UserID, remaining int) (string, error) {
	now := s.now()
	claims := &HopClaims{
		Remaining: remaining,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    hopIssuer,
			Subject:   string(subject),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry, issuer and that the token was minted for
// subject.
func (s *HopSigner) Verify(tokenString string, subject domain.UserID) (*HopClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidHopToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &HopClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(hopIssuer),
		jwt.WithSubject(string(subject)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHopToken, err)
	}
	claims, ok := token.Claims.(*HopClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidHopToken
	}
	return claims, nil
}
