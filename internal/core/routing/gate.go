package routing

import (
	"net/url"
	"strings"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/session"
)

type Action int

const (
	ActionAllow Action = iota
	ActionRedirectSignIn
	ActionRedirectDashboard
)

func (a Action) String() string {
	switch a {
	case ActionRedirectSignIn:
		return "redirect_signin"
	case ActionRedirectDashboard:
		return "redirect_dashboard"
	default:
		return "allow"
	}
}

const (
	ReasonPublic          = "public"
	ReasonUnprotected     = "unprotected"
	ReasonAuthorized      = "authorized"
	ReasonUnauthenticated = "unauthenticated"
	ReasonExpired         = "expired_session"
	ReasonMalformed       = "malformed_session"
	ReasonRoleMismatch    = "role_mismatch"
	ReasonDashboardRoot   = "dashboard_root"
	ReasonSignedIn        = "already_signed_in"
	ReasonLoopGuard       = "loop_guard"
)

// Request is what the gate sees of an inbound request.
type Request struct {
	Path     string
	RawQuery string
	Session  session.State
	// Identity is only consulted when Session is StateValid.
	Identity *domain.Identity
}

// Decision is exactly one of allow, redirect to sign-in, or redirect to
// the caller's own dashboard.
type Decision struct {
	Action      Action
	Location    string
	ClearCookie bool
	Reason      string
}

type Gate struct {
	rules   Rules
	hops    *HopSigner
	maxHops int
}

func NewGate(rules Rules, hops *HopSigner, maxHops int) *Gate {
	if maxHops <= 0 {
		maxHops = 3
	}
	return &Gate{rules: rules, hops: hops, maxHops: maxHops}
}

func (g *Gate) Rules() Rules { return g.rules }

func (g *Gate) Decide(req Request) Decision {
	p := CleanPath(req.Path)
	clear := req.Session.Invalid()

	var caller *domain.Identity
	if req.Session == session.StateValid && req.Identity != nil && req.Identity.Role.Valid() {
		caller = req.Identity
	}

	if caller != nil && g.rules.IsAuthRoute(p) {
		return g.toDashboard(req, caller, ReasonSignedIn)
	}
	if g.rules.IsPublic(p) {
		return Decision{Action: ActionAllow, ClearCookie: clear, Reason: ReasonPublic}
	}
	if !g.rules.IsProtected(p) {
		return Decision{Action: ActionAllow, ClearCookie: clear, Reason: ReasonUnprotected}
	}
	if caller == nil {
		return Decision{
			Action:      ActionRedirectSignIn,
			Location:    g.signInLocation(p, req.RawQuery),
			ClearCookie: clear,
			Reason:      unauthenticatedReason(req.Session),
		}
	}
	if p == CleanPath(g.rules.DashboardRoot) {
		return g.toDashboard(req, caller, ReasonDashboardRoot)
	}
	if role, ok := g.rules.RoleFor(p); ok && role != caller.Role {
		return g.toDashboard(req, caller, ReasonRoleMismatch)
	}
	return Decision{Action: ActionAllow, Reason: ReasonAuthorized}
}

func unauthenticatedReason(s session.State) string {
	switch s {
	case session.StateExpired:
		return ReasonExpired
	case session.StateMalformed:
		return ReasonMalformed
	default:
		return ReasonUnauthenticated
	}
}

func (g *Gate) signInLocation(p, rawQuery string) string {
	target := p
	if q := stripHop(rawQuery); q != "" {
		target += "?" + q
	}
	v := url.Values{}
	v.Set(RedirectParam, target)
	return g.rules.SignInPath + "?" + v.Encode()
}

// toDashboard redirects to the caller's own dashboard, spending one hop of
// the redirect budget carried in the _hop parameter. With the budget gone
// the request is let through and handler-level identity checks decide.
func (g *Gate) toDashboard(req Request, caller *domain.Identity, reason string) Decision {
	remaining := g.maxHops
	if g.hops != nil {
		if tok := hopFromQuery(req.RawQuery); tok != "" {
			if claims, err := g.hops.Verify(tok, caller.UserID); err == nil {
				remaining = claims.Remaining
			}
		}
	}
	if remaining <= 0 {
		return Decision{Action: ActionAllow, Reason: ReasonLoopGuard}
	}

	location := caller.Role.DashboardPath()
	if g.hops != nil {
		if tok, err := g.hops.Sign(caller.UserID, remaining-1); err == nil {
			location += "?" + HopParam + "=" + url.QueryEscape(tok)
		}
	}
	return Decision{Action: ActionRedirectDashboard, Location: location, Reason: reason}
}

func hopFromQuery(rawQuery string) string {
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ""
	}
	return q.Get(HopParam)
}

func stripHop(rawQuery string) string {
	if rawQuery == "" || !strings.Contains(rawQuery, HopParam) {
		return rawQuery
	}
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}
	q.Del(HopParam)
	return q.Encode()
}

// SafeRedirectTarget accepts only local absolute paths for post sign-in
// redirects.
func SafeRedirectTarget(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	target := CleanPath(u.Path)
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target, true
}

// RedirectTarget picks the post sign-in destination from the redirect or
// from parameter, falling back to the caller's dashboard.
func RedirectTarget(q url.Values, caller *domain.Identity) string {
	for _, key := range []string{RedirectParam, FromParam} {
		if target, ok := SafeRedirectTarget(q.Get(key)); ok {
			return target
		}
	}
	if caller != nil && caller.Role.Valid() {
		return caller.Role.DashboardPath()
	}
	return "/"
}
