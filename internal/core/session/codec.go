// Package session encodes the user-session cookie: URL-encoded JSON
// carrying {id, email, role, timestamp}. The value is not signed; holders
// of the cookie can forge it, so data access re-derives the caller from
// the user store and only edge routing trusts the decoded role.
package session

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"agentmart/internal/core/domain"
)

const (
	DefaultCookieName = "user-session"
	DefaultMaxAge     = 7 * 24 * time.Hour
)

// Descriptor is the decoded session. Timestamp is Unix milliseconds.
type Descriptor struct {
	ID        domain.UserID `json:"id"`
	Email     string        `json:"email"`
	Role      domain.Role   `json:"role"`
	Timestamp int64         `json:"timestamp"`
}

// wireDescriptor distinguishes absent fields from zero values.
type wireDescriptor struct {
	ID        *string `json:"id"`
	Email     string  `json:"email"`
	Role      *string `json:"role"`
	Timestamp *int64  `json:"timestamp"`
}

func Issue(id *domain.Identity, now time.Time) Descriptor {
	return Descriptor{
		ID:        id.UserID,
		Email:     id.Email,
		Role:      id.Role,
		Timestamp: now.UnixMilli(),
	}
}

func (d Descriptor) Identity() *domain.Identity {
	return &domain.Identity{UserID: d.ID, Email: d.Email, Role: d.Role}
}

func (d Descriptor) IssuedAt() time.Time {
	return time.UnixMilli(d.Timestamp)
}

func (d Descriptor) Age(now time.Time) time.Duration {
	return now.Sub(d.IssuedAt())
}

// IsExpired reports whether the descriptor is at least DefaultMaxAge old.
func IsExpired(d Descriptor, now time.Time) bool {
	return d.Age(now) >= DefaultMaxAge
}

// Encode serializes to JSON and URL-encodes the result. No signature, no
// encryption.
func Encode(d Descriptor) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	return url.QueryEscape(string(raw)), nil
}

// Decode reverses Encode. Any failure, including a missing id, role or
// timestamp or a role outside the closed set, is ErrMalformedSession.
func Decode(value string) (*Descriptor, error) {
	raw, err := url.QueryUnescape(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSession, err)
	}

	var w wireDescriptor
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSession, err)
	}

	switch {
	case w.ID == nil || *w.ID == "":
		return nil, fmt.Errorf("%w: missing id", domain.ErrMalformedSession)
	case w.Role == nil:
		return nil, fmt.Errorf("%w: missing role", domain.ErrMalformedSession)
	case w.Timestamp == nil:
		return nil, fmt.Errorf("%w: missing timestamp", domain.ErrMalformedSession)
	}

	role := domain.Role(*w.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrMalformedSession, *w.Role)
	}

	return &Descriptor{
		ID:        domain.UserID(*w.ID),
		Email:     w.Email,
		Role:      role,
		Timestamp: *w.Timestamp,
	}, nil
}
