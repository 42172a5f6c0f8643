package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func devCodec() CookieCodec {
	return NewCookieCodec("", "", 7*24*time.Hour, false)
}

func TestParseSessionCookie(t *testing.T) {
	codec := devCodec()

	tests := []struct {
		name          string
		header        string
		preferSupport bool
		want          string
		wantOK        bool
	}{
		{name: "empty header", header: "", want: "", wantOK: false},
		{name: "unrelated cookies", header: "theme=dark; lang=cs", want: "", wantOK: false},
		{name: "customer only", header: "sid=abc", want: "abc", wantOK: true},
		{name: "customer only prefer support falls back", header: "sid=abc", preferSupport: true, want: "abc", wantOK: true},
		{name: "support only", header: "support_sid=xyz", want: "xyz", wantOK: true},
		{name: "support only prefer support", header: "support_sid=xyz", preferSupport: true, want: "xyz", wantOK: true},
		{name: "both default prefers customer", header: "sid=abc; support_sid=xyz", want: "abc", wantOK: true},
		{name: "both prefer support", header: "sid=abc; support_sid=xyz", preferSupport: true, want: "xyz", wantOK: true},
		{name: "whitespace and empty parts", header: " sid=abc ;; theme=dark ", want: "abc", wantOK: true},
		{name: "value containing equals", header: "sid=a=b=c", want: "a=b=c", wantOK: true},
		{name: "empty customer value falls back to support", header: "sid=; support_sid=xyz", want: "xyz", wantOK: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := codec.Parse(tc.header, tc.preferSupport)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestBuildRoundTrip(t *testing.T) {
	codec := devCodec()

	header := codec.Build(codec.CustomerName, "session-id-1")
	id, ok := codec.Parse(header, false)
	require.True(t, ok)
	require.Equal(t, "session-id-1", id)

	// Prefer-support still resolves a customer-only header.
	id, ok = codec.Parse(header, true)
	require.True(t, ok)
	require.Equal(t, "session-id-1", id)
}

func TestBuildAttributes(t *testing.T) {
	codec := devCodec()

	header := codec.Build("sid", "abc")
	require.True(t, strings.HasPrefix(header, "sid=abc; "))
	require.Contains(t, header, "Path=/")
	require.Contains(t, header, "Max-Age=604800")
	require.Contains(t, header, "HttpOnly")
	require.Contains(t, header, "SameSite=Lax")
	require.NotContains(t, header, "Secure")

	secure := NewCookieCodec("sid", "support_sid", 7*24*time.Hour, true)
	require.Contains(t, secure.Build("sid", "abc"), "Secure")
}

func TestBuildExpired(t *testing.T) {
	codec := devCodec()

	header := codec.BuildExpired("sid")
	require.True(t, strings.HasPrefix(header, "sid=; "))
	require.Contains(t, header, "Max-Age=0")
	require.Contains(t, header, "HttpOnly")
}

func TestBuildExpiredAllClearsBothNames(t *testing.T) {
	codec := devCodec()

	cookies := codec.BuildExpiredAll()
	require.Len(t, cookies, 2)
	require.True(t, strings.HasPrefix(cookies[0], "sid=; "))
	require.True(t, strings.HasPrefix(cookies[1], "support_sid=; "))

	same := NewCookieCodec("one", "one", time.Hour, false)
	require.Len(t, same.BuildExpiredAll(), 1)
}

func TestNameForRole(t *testing.T) {
	codec := devCodec()
	require.Equal(t, "sid", codec.NameForRole(RoleCustomer))
	require.Equal(t, "support_sid", codec.NameForRole(RoleSupport))
}
