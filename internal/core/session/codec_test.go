package session

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"agentmart/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []Descriptor{
		{ID: "u1", Email: "creator@example.com", Role: domain.RoleCreator, Timestamp: now.UnixMilli()},
		{ID: "u2", Email: "", Role: domain.RoleEnterprise, Timestamp: now.Add(-6 * 24 * time.Hour).UnixMilli()},
		{ID: "8b7c1f5e-admin", Email: "ops+alerts@example.org", Role: domain.RoleAdmin, Timestamp: now.Add(-time.Minute).UnixMilli()},
		{ID: "u 4;=&", Email: "名前@例え.jp", Role: domain.RoleCreator, Timestamp: now.UnixMilli()},
	}

	for _, d := range cases {
		t.Run(string(d.ID), func(t *testing.T) {
			require.False(t, IsExpired(d, now))

			value, err := Encode(d)
			require.NoError(t, err)

			got, err := Decode(value)
			require.NoError(t, err)
			assert.Equal(t, d, *got)
		})
	}
}

func TestEncode_IsURLEncodedJSON(t *testing.T) {
	value, err := Encode(Descriptor{ID: "u1", Email: "a@b.co", Role: domain.RoleCreator, Timestamp: 1700000000000})
	require.NoError(t, err)

	raw, err := url.QueryUnescape(value)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"u1","email":"a@b.co","role":"creator","timestamp":1700000000000}`, raw)
	assert.NotContains(t, value, "{")
	assert.NotContains(t, value, ";")
}

func TestDecode_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":             "",
		"not json":          "hello",
		"bad escape":        "%zz",
		"json null":         url.QueryEscape("null"),
		"array":             url.QueryEscape(`[1,2]`),
		"missing id":        url.QueryEscape(`{"role":"creator","timestamp":1}`),
		"empty id":          url.QueryEscape(`{"id":"","role":"creator","timestamp":1}`),
		"missing role":      url.QueryEscape(`{"id":"u1","timestamp":1}`),
		"missing timestamp": url.QueryEscape(`{"id":"u1","role":"creator"}`),
		"unknown role":      url.QueryEscape(`{"id":"u1","role":"root","timestamp":1}`),
		"uppercase role":    url.QueryEscape(`{"id":"u1","role":"ADMIN","timestamp":1}`),
		"string timestamp":  url.QueryEscape(`{"id":"u1","role":"creator","timestamp":"now"}`),
	}

	for name, value := range cases {
		t.Run(name, func(t *testing.T) {
			d, err := Decode(value)
			assert.Nil(t, d)
			assert.ErrorIs(t, err, domain.ErrMalformedSession)
		})
	}
}

func TestIsExpired_Boundary(t *testing.T) {
	now := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	fresh := Descriptor{ID: "u1", Role: domain.RoleCreator, Timestamp: now.Add(-DefaultMaxAge + time.Millisecond).UnixMilli()}
	assert.False(t, IsExpired(fresh, now))

	exact := Descriptor{ID: "u1", Role: domain.RoleCreator, Timestamp: now.Add(-DefaultMaxAge).UnixMilli()}
	assert.True(t, IsExpired(exact, now))

	old := Descriptor{ID: "u1", Role: domain.RoleCreator, Timestamp: now.Add(-30 * 24 * time.Hour).UnixMilli()}
	assert.True(t, IsExpired(old, now))
}

func fixedCodec(now time.Time, cfg CodecConfig) *Codec {
	return NewCodec(cfg).WithClock(func() time.Time { return now })
}

func TestCodec_ReadClassifiesCookie(t *testing.T) {
	now := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	codec := fixedCodec(now, CodecConfig{})

	valid, _ := Encode(Descriptor{ID: "u1", Role: domain.RoleCreator, Timestamp: now.Add(-time.Hour).UnixMilli()})
	expired, _ := Encode(Descriptor{ID: "u1", Role: domain.RoleCreator, Timestamp: now.Add(-8 * 24 * time.Hour).UnixMilli()})

	cases := []struct {
		name   string
		cookie *http.Cookie
		state  State
		hasID  bool
	}{
		{"absent", nil, StateAbsent, false},
		{"empty value", &http.Cookie{Name: DefaultCookieName, Value: ""}, StateAbsent, false},
		{"malformed", &http.Cookie{Name: DefaultCookieName, Value: "garbage"}, StateMalformed, false},
		{"expired", &http.Cookie{Name: DefaultCookieName, Value: expired}, StateExpired, true},
		{"valid", &http.Cookie{Name: DefaultCookieName, Value: valid}, StateValid, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
			if tc.cookie != nil {
				r.AddCookie(tc.cookie)
			}
			state, d := codec.Read(r)
			assert.Equal(t, tc.state, state)
			assert.Equal(t, tc.hasID, d != nil)
		})
	}
}

func TestCodec_WriteSetsAttributes(t *testing.T) {
	now := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	codec := fixedCodec(now, CodecConfig{})

	r := httptest.NewRequest(http.MethodGet, "https://market.example.com/signin", nil)
	w := httptest.NewRecorder()
	d := codec.Issue(Descriptor{ID: "u1", Email: "a@b.co", Role: domain.RoleCreator})
	require.NoError(t, codec.Write(w, r, d))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, DefaultCookieName, c.Name)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 604800, c.MaxAge)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.True(t, c.Secure)
	assert.False(t, c.HttpOnly)

	got, err := Decode(c.Value)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), got.Timestamp)
}

func TestCodec_SecureModes(t *testing.T) {
	plain := httptest.NewRequest(http.MethodGet, "http://localhost/", nil)
	proxied := httptest.NewRequest(http.MethodGet, "http://localhost/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")

	auto := NewCodec(CodecConfig{Secure: SecureAuto})
	assert.False(t, auto.secure(plain))
	assert.True(t, auto.secure(proxied))
	assert.True(t, NewCodec(CodecConfig{Secure: SecureAlways}).secure(plain))
	assert.False(t, NewCodec(CodecConfig{Secure: SecureNever}).secure(proxied))
}

func TestCodec_ClearDeletesCookie(t *testing.T) {
	codec := NewCodec(CodecConfig{SameSite: http.SameSiteStrictMode})
	w := httptest.NewRecorder()
	codec.Clear(w, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
}

func TestParseSameSite(t *testing.T) {
	s, ok := ParseSameSite("Strict")
	assert.True(t, ok)
	assert.Equal(t, http.SameSiteStrictMode, s)

	s, ok = ParseSameSite("")
	assert.True(t, ok)
	assert.Equal(t, http.SameSiteLaxMode, s)

	s, ok = ParseSameSite("none")
	assert.True(t, ok)
	assert.Equal(t, http.SameSiteNoneMode, s)

	_, ok = ParseSameSite("loose")
	assert.False(t, ok)
}
