// Package session implements cookie-based sessions for the shop backend:
// customer and support sessions stored in the shared cache, a per-user
// index of open sessions, and short-lived one-time impersonation tickets
// that let a support agent obtain a session as another user.
package session

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

type Role string

const (
	RoleCustomer Role = "CUSTOMER"
	RoleSupport  Role = "SUPPORT"
)

// Record binds an opaque session id to an authenticated subject. The role is
// fixed for the life of the session; only email and name may change, after a
// profile update.
type Record struct {
	ID             string    `json:"id"`
	UserID         int       `json:"userId"`
	Email          string    `json:"email"`
	Name           *string   `json:"name,omitempty"`
	Role           Role      `json:"role"`
	ImpersonatedBy *int      `json:"impersonatedBy,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Impersonation is the redeemed payload of a one-time ticket.
type Impersonation struct {
	UserID    int       `json:"userId"`
	AdminID   int       `json:"adminId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Ticket is handed to the support agent who requested impersonation.
type Ticket struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
