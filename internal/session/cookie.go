package session

import (
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCustomerCookieName = "sid"
	DefaultSupportCookieName  = "support_sid"
)

// CookieCodec builds and parses the two recognized session cookies. Cookie
// values are opaque session ids; the customer and support cookies carry
// independent sessions so a support agent can stay logged in to the admin
// portal while impersonating a customer.
type CookieCodec struct {
	CustomerName string
	SupportName  string
	TTL          time.Duration
	Secure       bool // set in production so cookies are HTTPS-only
}

func NewCookieCodec(customerName, supportName string, ttl time.Duration, secure bool) CookieCodec {
	if customerName == "" {
		customerName = DefaultCustomerCookieName
	}
	if supportName == "" {
		supportName = DefaultSupportCookieName
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return CookieCodec{
		CustomerName: customerName,
		SupportName:  supportName,
		TTL:          ttl,
		Secure:       secure,
	}
}

// NameForRole selects which cookie carries a session of the given role.
func (c CookieCodec) NameForRole(role Role) string {
	if role == RoleSupport {
		return c.SupportName
	}
	return c.CustomerName
}

// Build returns a Set-Cookie header value carrying sessionID under name.
func (c CookieCodec) Build(name, sessionID string) string {
	parts := []string{
		name + "=" + sessionID,
		"Path=/",
		"Max-Age=" + strconv.Itoa(int(c.TTL.Seconds())),
		"HttpOnly",
		"SameSite=Lax",
	}
	if c.Secure {
		parts = append(parts, "Secure")
	}
	return strings.Join(parts, "; ")
}

// BuildExpired returns a Set-Cookie header value that clears name.
func (c CookieCodec) BuildExpired(name string) string {
	parts := []string{
		name + "=",
		"Path=/",
		"Max-Age=0",
		"HttpOnly",
		"SameSite=Lax",
	}
	if c.Secure {
		parts = append(parts, "Secure")
	}
	return strings.Join(parts, "; ")
}

// BuildExpiredAll clears every recognized cookie name, for logouts where
// the session's role is unknown.
func (c CookieCodec) BuildExpiredAll() []string {
	cookies := []string{c.BuildExpired(c.CustomerName)}
	if c.SupportName != c.CustomerName {
		cookies = append(cookies, c.BuildExpired(c.SupportName))
	}
	return cookies
}

// Parse extracts one session id from a raw Cookie header. When both
// recognized cookies are present the support one wins only if the caller
// prefers it; otherwise the customer cookie wins, with the support cookie
// as a fallback.
func (c CookieCodec) Parse(header string, preferSupport bool) (string, bool) {
	if header == "" {
		return "", false
	}

	var customerSession, supportSession string
	for _, rawPart := range strings.Split(header, ";") {
		part := strings.TrimSpace(rawPart)
		if part == "" {
			continue
		}
		name, value, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		switch name {
		case c.SupportName:
			supportSession = value
		case c.CustomerName:
			customerSession = value
		}
	}

	if preferSupport && supportSession != "" {
		return supportSession, true
	}
	if customerSession != "" {
		return customerSession, true
	}
	if supportSession != "" {
		return supportSession, true
	}
	return "", false
}
