package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

type AgentID string

type AgentStatus string

const (
	AgentStatusDraft     AgentStatus = "draft"
	AgentStatusPending   AgentStatus = "pending"
	AgentStatusPublished AgentStatus = "published"
	AgentStatusRejected  AgentStatus = "rejected"
	AgentStatusArchived  AgentStatus = "archived"
)

func ParseAgentStatus(s string) (AgentStatus, error) {
	switch st := AgentStatus(s); st {
	case AgentStatusDraft, AgentStatusPending, AgentStatusPublished, AgentStatusRejected, AgentStatusArchived:
		return st, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidAgent, s)
	}
}

// Agent is the marketplace listing owned by a creator. Visibility to other
// callers is decided by IsPublic; Status tracks moderation.
type Agent struct {
	ID          AgentID     `json:"id"`
	CreatorID   UserID      `json:"creator_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	IsPublic    bool        `json:"is_public"`
	Status      AgentStatus `json:"status"`
	Featured    bool        `json:"featured"`
	PriceCents  int64       `json:"price_cents"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// AgentDraft is the input for creating an agent. CreatorID is only honoured
// for admins creating on behalf of a creator.
type AgentDraft struct {
	CreatorID   UserID `json:"creator_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsPublic    bool   `json:"is_public"`
	PriceCents  int64  `json:"price_cents"`
}

// AgentPatch carries optional field updates; nil means unchanged.
type AgentPatch struct {
	Name        *string      `json:"name,omitempty"`
	Description *string      `json:"description,omitempty"`
	Category    *string      `json:"category,omitempty"`
	IsPublic    *bool        `json:"is_public,omitempty"`
	Status      *AgentStatus `json:"status,omitempty"`
	Featured    *bool        `json:"featured,omitempty"`
	PriceCents  *int64       `json:"price_cents,omitempty"`
}

func (p AgentPatch) Apply(a *Agent) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Category != nil {
		a.Category = *p.Category
	}
	if p.IsPublic != nil {
		a.IsPublic = *p.IsPublic
	}
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.Featured != nil {
		a.Featured = *p.Featured
	}
	if p.PriceCents != nil {
		a.PriceCents = *p.PriceCents
	}
}

// AgentCriteria are the list filters a caller may ask for. They narrow the
// result further; they never widen what the access filter allows.
type AgentCriteria struct {
	Status   AgentStatus
	Category string
	Featured *bool
	Public   *bool
	Search   string
}

// Narrows reports whether a matches every criterion that is set. Search is
// a case-insensitive substring match on name and description.
func (c AgentCriteria) Narrows(a *Agent) bool {
	if c.Status != "" && a.Status != c.Status {
		return false
	}
	if c.Category != "" && !strings.EqualFold(a.Category, c.Category) {
		return false
	}
	if c.Featured != nil && a.Featured != *c.Featured {
		return false
	}
	if c.Public != nil && a.IsPublic != *c.Public {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(c.Search)); q != "" {
		return strings.Contains(strings.ToLower(a.Name), q) ||
			strings.Contains(strings.ToLower(a.Description), q)
	}
	return true
}

// AgentQuery is a page of agents matching Criteria, newest first.
type AgentQuery struct {
	Criteria AgentCriteria
	Page     Page
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageNumber keeps (Number-1)*Size far from integer overflow.
	MaxPageNumber = 100000
)

type Page struct {
	Number int
	Size   int
}

func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	return p
}

func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Size
}

// Paginate slices an already ordered result set for the in-process
// backends.
func Paginate[T any](items []T, page Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + page.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// SortNewestFirst orders agents by creation time, newest first, with the
// id as a stable tie breaker.
func SortNewestFirst(agents []*Agent) {
	sort.Slice(agents, func(i, j int) bool {
		if !agents[i].CreatedAt.Equal(agents[j].CreatedAt) {
			return agents[i].CreatedAt.After(agents[j].CreatedAt)
		}
		return agents[i].ID < agents[j].ID
	})
}
