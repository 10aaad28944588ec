// Package routing is the edge path-prefix gate: a static route table and
// the per-request decision run before any page or handler code.
package routing

import (
	"path"
	"sort"
	"strings"

	"agentmart/internal/core/domain"
)

const (
	RedirectParam = "redirect"
	FromParam     = "from"
	HopParam      = "_hop"
)

// Rules is the static route table. Public routes are exact paths or
// bracket-parameter patterns such as /agents/[id] and /docs/[...slug].
type Rules struct {
	SignInPath        string
	DashboardRoot     string
	PublicRoutes      []string
	AuthRoutes        []string
	ProtectedPrefixes []string
	RolePrefixes      map[string]domain.Role
}

func DefaultRules() Rules {
	return Rules{
		SignInPath:    "/signin",
		DashboardRoot: "/dashboard",
		PublicRoutes: []string{
			"/",
			"/agents",
			"/agents/[id]",
			"/signin",
			"/signup",
			"/redirect",
		},
		AuthRoutes:        []string{"/signin", "/signup"},
		ProtectedPrefixes: []string{"/dashboard", "/api/protected"},
		RolePrefixes: map[string]domain.Role{
			"/dashboard/creator":    domain.RoleCreator,
			"/dashboard/enterprise": domain.RoleEnterprise,
			"/dashboard/admin":      domain.RoleAdmin,
		},
	}
}

// CleanPath normalizes a request path for matching.
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// underPrefix matches whole segments, so /dashboardx is not under /dashboard.
func underPrefix(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func (r Rules) IsPublic(p string) bool {
	p = CleanPath(p)
	for _, pattern := range r.PublicRoutes {
		if matchPattern(pattern, p) {
			return true
		}
	}
	return false
}

func (r Rules) IsAuthRoute(p string) bool {
	p = CleanPath(p)
	for _, route := range r.AuthRoutes {
		if CleanPath(route) == p {
			return true
		}
	}
	return false
}

func (r Rules) IsProtected(p string) bool {
	p = CleanPath(p)
	for _, prefix := range r.ProtectedPrefixes {
		if underPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// RoleFor returns the role required by the longest matching role prefix.
func (r Rules) RoleFor(p string) (domain.Role, bool) {
	p = CleanPath(p)
	prefixes := make([]string, 0, len(r.RolePrefixes))
	for prefix := range r.RolePrefixes {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })
	for _, prefix := range prefixes {
		if underPrefix(p, prefix) {
			return r.RolePrefixes[prefix], true
		}
	}
	return "", false
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func matchPattern(pattern, p string) bool {
	pattern = CleanPath(pattern)
	if !strings.Contains(pattern, "[") {
		return pattern == p
	}
	ps := segments(pattern)
	ss := segments(p)
	for i, seg := range ps {
		isParam := strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]")
		if isParam && strings.HasPrefix(seg, "[...") {
			return i == len(ps)-1 && len(ss) > i
		}
		if i >= len(ss) {
			return false
		}
		if isParam {
			if ss[i] == "" {
				return false
			}
			continue
		}
		if seg != ss[i] {
			return false
		}
	}
	return len(ss) == len(ps)
}
