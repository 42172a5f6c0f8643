package graphql

import (
	"github.com/shopx-dev/shopx/internal/apperr"
	"github.com/shopx-dev/shopx/internal/session"
)

// RequireAuthenticated returns the request's session or an Unauthenticated
// error when there is none.
func RequireAuthenticated(rc *RequestContext) (*session.Record, error) {
	if rc == nil || rc.Session == nil {
		return nil, apperr.Unauthenticated("authentication required")
	}
	return rc.Session, nil
}

// RequireOwner returns the session when the authenticated subject owns the
// resource scoped to userID. There is no role bypass here: support-only
// operations use RequireAuthenticated plus an explicit role check at the
// call site.
func RequireOwner(rc *RequestContext, userID int) (*session.Record, error) {
	record, err := RequireAuthenticated(rc)
	if err != nil {
		return nil, err
	}
	if record.UserID != userID {
		return nil, apperr.Forbidden("you are not authorized to perform this action")
	}
	return record, nil
}

// RequireSupport returns the session when the authenticated subject holds
// the support role.
func RequireSupport(rc *RequestContext) (*session.Record, error) {
	record, err := RequireAuthenticated(rc)
	if err != nil {
		return nil, err
	}
	if record.Role != session.RoleSupport {
		return nil, apperr.Forbidden("support role required")
	}
	return record, nil
}
