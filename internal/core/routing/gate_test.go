package routing

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"agentmart/internal/core/domain"
	"agentmart/internal/core/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGate(t *testing.T) *Gate {
	t.Helper()
	hops, err := NewHopSigner("test-secret", time.Minute)
	require.NoError(t, err)
	return NewGate(DefaultRules(), hops, 3)
}

func valid(id domain.UserID, role domain.Role) Request {
	return Request{Session: session.StateValid, Identity: &domain.Identity{UserID: id, Role: role}}
}

func at(req Request, target string) Request {
	u, _ := url.Parse(target)
	req.Path = u.Path
	req.RawQuery = u.RawQuery
	return req
}

func pathOf(t *testing.T, location string) string {
	t.Helper()
	u, err := url.Parse(location)
	require.NoError(t, err)
	return u.Path
}

func TestGate_CreatorOnAdminTree(t *testing.T) {
	g := newTestGate(t)

	d := g.Decide(at(valid("u1", domain.RoleCreator), "/dashboard/admin/users"))

	assert.Equal(t, ActionRedirectDashboard, d.Action)
	assert.Equal(t, "/dashboard/creator", pathOf(t, d.Location))
	assert.Equal(t, ReasonRoleMismatch, d.Reason)
	assert.False(t, d.ClearCookie)
}

func TestGate_NoCookieOnProtectedPath(t *testing.T) {
	g := newTestGate(t)

	d := g.Decide(at(Request{Session: session.StateAbsent}, "/dashboard/creator/stats"))

	assert.Equal(t, ActionRedirectSignIn, d.Action)
	assert.Equal(t, "/signin?redirect=%2Fdashboard%2Fcreator%2Fstats", d.Location)
	assert.Equal(t, ReasonUnauthenticated, d.Reason)
	assert.False(t, d.ClearCookie)
}

func TestGate_SignInRedirectKeepsQuery(t *testing.T) {
	g := newTestGate(t)

	d := g.Decide(at(Request{}, "/dashboard/admin/agents?page=2&status=pending&_hop=abc"))

	require.Equal(t, ActionRedirectSignIn, d.Action)
	u, err := url.Parse(d.Location)
	require.NoError(t, err)
	assert.Equal(t, "/dashboard/admin/agents?page=2&status=pending", u.Query().Get(RedirectParam))
}

func TestGate_RoleSymmetry(t *testing.T) {
	g := newTestGate(t)

	tests := []struct {
		role   domain.Role
		path   string
		target string
	}{
		{domain.RoleCreator, "/dashboard/enterprise", "/dashboard/creator"},
		{domain.RoleCreator, "/dashboard/enterprise/agents", "/dashboard/creator"},
		{domain.RoleEnterprise, "/dashboard/creator", "/dashboard/enterprise"},
		{domain.RoleEnterprise, "/dashboard/creator/stats", "/dashboard/enterprise"},
		{domain.RoleAdmin, "/dashboard/creator", "/dashboard/admin"},
		{domain.RoleEnterprise, "/dashboard/admin", "/dashboard/enterprise"},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+tt.path, func(t *testing.T) {
			d := g.Decide(at(valid("u1", tt.role), tt.path))
			assert.Equal(t, ActionRedirectDashboard, d.Action)
			assert.Equal(t, tt.target, pathOf(t, d.Location))
		})
	}
}

func TestGate_Allow(t *testing.T) {
	g := newTestGate(t)

	tests := []struct {
		name   string
		req    Request
		reason string
	}{
		{"own tree", at(valid("u1", domain.RoleCreator), "/dashboard/creator/agents"), ReasonAuthorized},
		{"admin tree", at(valid("a1", domain.RoleAdmin), "/dashboard/admin/users"), ReasonAuthorized},
		{"protected api", at(valid("e1", domain.RoleEnterprise), "/api/protected/session"), ReasonAuthorized},
		{"public anonymous", at(Request{}, "/agents/abc"), ReasonPublic},
		{"public signed in", at(valid("u1", domain.RoleCreator), "/agents"), ReasonPublic},
		{"unlisted", at(Request{}, "/api/v1/agents"), ReasonUnprotected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Decide(tt.req)
			assert.Equal(t, ActionAllow, d.Action)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Empty(t, d.Location)
		})
	}
}

func TestGate_DashboardRoot(t *testing.T) {
	g := newTestGate(t)

	d := g.Decide(at(valid("e1", domain.RoleEnterprise), "/dashboard"))
	assert.Equal(t, ActionRedirectDashboard, d.Action)
	assert.Equal(t, "/dashboard/enterprise", pathOf(t, d.Location))
	assert.Equal(t, ReasonDashboardRoot, d.Reason)

	d = g.Decide(at(Request{}, "/dashboard"))
	assert.Equal(t, ActionRedirectSignIn, d.Action)
	assert.Equal(t, "/signin?redirect=%2Fdashboard", d.Location)
}

func TestGate_AuthPagesWhenSignedIn(t *testing.T) {
	g := newTestGate(t)

	d := g.Decide(at(valid("u1", domain.RoleCreator), "/signin"))
	assert.Equal(t, ActionRedirectDashboard, d.Action)
	assert.Equal(t, ReasonSignedIn, d.Reason)

	d = g.Decide(at(Request{}, "/signup"))
	assert.Equal(t, ActionAllow, d.Action)
}

func TestGate_InvalidCookies(t *testing.T) {
	g := newTestGate(t)
	stale := &domain.Identity{UserID: "u1", Role: domain.RoleCreator}

	d := g.Decide(at(Request{Session: session.StateExpired, Identity: stale}, "/dashboard/creator"))
	assert.Equal(t, ActionRedirectSignIn, d.Action)
	assert.True(t, d.ClearCookie)
	assert.Equal(t, ReasonExpired, d.Reason)

	d = g.Decide(at(Request{Session: session.StateMalformed}, "/dashboard"))
	assert.Equal(t, ActionRedirectSignIn, d.Action)
	assert.True(t, d.ClearCookie)
	assert.Equal(t, ReasonMalformed, d.Reason)

	d = g.Decide(at(Request{Session: session.StateExpired, Identity: stale}, "/"))
	assert.Equal(t, ActionAllow, d.Action)
	assert.True(t, d.ClearCookie)

	d = g.Decide(at(Request{Session: session.StateExpired, Identity: stale}, "/signin"))
	assert.Equal(t, ActionAllow, d.Action, "expired session is not a signed-in caller")
	assert.True(t, d.ClearCookie)
}

func TestGate_UnknownRoleFailsClosed(t *testing.T) {
	g := newTestGate(t)

	d := g.Decide(at(valid("x", domain.Role("superuser")), "/dashboard/admin"))
	assert.Equal(t, ActionRedirectSignIn, d.Action)
}

func TestGate_LoopGuard(t *testing.T) {
	g := newTestGate(t)
	caller := valid("u1", domain.RoleCreator)

	d := g.Decide(at(caller, "/dashboard/admin"))
	hopsSeen := 0
	for d.Action == ActionRedirectDashboard {
		hopsSeen++
		require.LessOrEqual(t, hopsSeen, 3, "redirect chain exceeded the hop cap")
		require.Contains(t, d.Location, HopParam+"=")
		// Pretend the target page bounced us again.
		u, err := url.Parse(d.Location)
		require.NoError(t, err)
		d = g.Decide(at(caller, "/dashboard/enterprise?"+u.RawQuery))
	}

	assert.Equal(t, 3, hopsSeen)
	assert.Equal(t, ActionAllow, d.Action)
	assert.Equal(t, ReasonLoopGuard, d.Reason)
}

func TestGate_LoopGuardRejectsForeignTokens(t *testing.T) {
	g := newTestGate(t)

	other, err := NewHopSigner("other-secret", time.Minute)
	require.NoError(t, err)
	forged, err := other.Sign("u1", 0)
	require.NoError(t, err)

	d := g.Decide(at(valid("u1", domain.RoleCreator), "/dashboard/admin?_hop="+forged))
	assert.Equal(t, ActionRedirectDashboard, d.Action, "forged token must not exhaust the budget")

	theirs, err := g.hops.Sign("u2", 0)
	require.NoError(t, err)
	d = g.Decide(at(valid("u1", domain.RoleCreator), "/dashboard/admin?_hop="+theirs))
	assert.Equal(t, ActionRedirectDashboard, d.Action, "token minted for another user is ignored")
}

func TestSafeRedirectTarget(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"/dashboard/creator/stats", "/dashboard/creator/stats", true},
		{"/agents?page=2", "/agents?page=2", true},
		{"", "", false},
		{"dashboard", "", false},
		{"//evil.example", "", false},
		{"/\\evil.example", "", false},
		{"https://evil.example/x", "", false},
		{"javascript:alert(1)", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := SafeRedirectTarget(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRedirectTarget(t *testing.T) {
	creator := &domain.Identity{UserID: "u1", Role: domain.RoleCreator}

	assert.Equal(t, "/dashboard/creator/stats", RedirectTarget(url.Values{"redirect": {"/dashboard/creator/stats"}}, creator))
	assert.Equal(t, "/agents", RedirectTarget(url.Values{"from": {"/agents"}}, nil))
	assert.Equal(t, "/dashboard/creator", RedirectTarget(url.Values{"redirect": {"//evil"}}, creator))
	assert.Equal(t, "/", RedirectTarget(url.Values{}, nil))
	assert.False(t, strings.Contains(RedirectTarget(url.Values{"redirect": {"https://x"}}, nil), "x"))
}
