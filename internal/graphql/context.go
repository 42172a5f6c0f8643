// Package graphql carries the request-scoped plumbing around the excluded
// resolver layer: per-request context assembly from cookies, the
// authorization guards, and the /graphql endpoint for the session and
// user-context operations.
package graphql

import (
	"context"
	"net/http"
	"strings"

	"github.com/shopx-dev/shopx/internal/session"
)

// SupportSessionHeader marks a request as belonging to the support portal,
// so the support cookie wins when both cookies are present. The value comes
// from the client and is only a cookie-selection hint; it grants nothing by
// itself.
const SupportSessionHeader = "x-shopx-support-session"

// RequestContext is built once per request before any resolver runs and is
// immutable for the request's duration, except that a self-service profile
// edit may update the resolved session's email and name in place.
type RequestContext struct {
	Request *http.Request
	Session *session.Record

	// Set-Cookie values accumulate here and are flushed to the response
	// in order, once, so two components attaching cookies in the same
	// request cannot clobber each other.
	pendingCookies []string
}

// SessionResolver is the slice of the session store context assembly needs.
type SessionResolver interface {
	Get(ctx context.Context, id string) *session.Record
}

// NewRequestContext parses the inbound cookie header, resolves the session
// if one is referenced, and packages both with the request. A request with
// no usable cookie, or whose session is missing or expired, yields a
// context with a nil Session.
func NewRequestContext(r *http.Request, sessions SessionResolver, codec session.CookieCodec) *RequestContext {
	rc := &RequestContext{Request: r}

	preferSupport := prefersSupportSession(r)
	if id, ok := codec.Parse(r.Header.Get("Cookie"), preferSupport); ok {
		rc.Session = sessions.Get(r.Context(), id)
	}
	return rc
}

// AppendCookie queues a Set-Cookie value for the response.
func (rc *RequestContext) AppendCookie(value string) {
	rc.pendingCookies = append(rc.pendingCookies, value)
}

// FlushCookies writes the queued Set-Cookie values to header, preserving
// order and any values already present.
func (rc *RequestContext) FlushCookies(header http.Header) {
	for _, value := range rc.pendingCookies {
		header.Add("Set-Cookie", value)
	}
	rc.pendingCookies = nil
}

func prefersSupportSession(r *http.Request) bool {
	for _, value := range r.Header.Values(SupportSessionHeader) {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "1" || value == "true" {
			return true
		}
	}
	return false
}
