package session

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shopx-dev/shopx/internal/kvcache"
)

const (
	DefaultSessionTTL = 7 * 24 * time.Hour
	DefaultTicketTTL  = 60 * time.Second

	sessionKeyPrefix       = "session:"
	userSessionsKeyPrefix  = "session-user:"
	impersonationKeyPrefix = "impersonate:"
)

// Store creates, resolves, and invalidates sessions against the shared
// cache. Lookups never fail: any trouble reaching the backend reads as "no
// session" so authorization fails closed.
type Store struct {
	cache      kvcache.Store
	sessionTTL time.Duration
	ticketTTL  time.Duration
	now        func() time.Time
}

func NewStore(cache kvcache.Store, sessionTTL, ticketTTL time.Duration) *Store {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	if ticketTTL <= 0 {
		ticketTTL = DefaultTicketTTL
	}
	return &Store{
		cache:      cache,
		sessionTTL: sessionTTL,
		ticketTTL:  ticketTTL,
		now:        time.Now,
	}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func userSessionsKey(userID int) string {
	return userSessionsKeyPrefix + strconv.Itoa(userID)
}

func impersonationKey(token string) string { return impersonationKeyPrefix + token }

// SessionTTL reports the configured session lifetime, also used as the
// cookie Max-Age.
func (s *Store) SessionTTL() time.Duration { return s.sessionTTL }

type CreateParams struct {
	UserID         int
	Email          string
	Name           *string
	Role           Role
	ImpersonatedBy *int
}

// Create mints a fresh unguessable session id, stores the record with the
// session TTL, and appends the id to the owning user's session index.
func (s *Store) Create(ctx context.Context, params CreateParams) (*Record, error) {
	id, err := newSessionID()
	if err != nil {
		return nil, err
	}
	record := &Record{
		ID:             id,
		UserID:         params.UserID,
		Email:          params.Email,
		Name:           params.Name,
		Role:           params.Role,
		ImpersonatedBy: params.ImpersonatedBy,
		CreatedAt:      s.now().UTC(),
	}
	s.writeRecord(ctx, record)

	ids := s.readUserIndex(ctx, record.UserID)
	if !contains(ids, id) {
		ids = append(ids, id)
	}
	s.writeUserIndex(ctx, record.UserID, ids)

	return record, nil
}

// Get resolves a session id. A hit renews the record's TTL and the owning
// user's index TTL, so an active user keeps their whole session set alive.
// A miss returns nil; it is never an error.
func (s *Store) Get(ctx context.Context, id string) *Record {
	if id == "" {
		return nil
	}
	record := s.readRecord(ctx, id)
	if record == nil {
		return nil
	}

	// Sliding expiration.
	s.writeRecord(ctx, record)
	if ids := s.readUserIndex(ctx, record.UserID); len(ids) > 0 {
		s.writeUserIndex(ctx, record.UserID, ids)
	}
	return record
}

// Update rewrites an existing record with a fresh TTL. Used after a profile
// edit to keep the stored email/name current.
func (s *Store) Update(ctx context.Context, record *Record) {
	if record == nil || record.ID == "" {
		return
	}
	s.writeRecord(ctx, record)
}

// Invalidate deletes one session and removes it from the owner's index.
// Reports whether a session actually existed.
func (s *Store) Invalidate(ctx context.Context, id string) bool {
	record := s.readRecord(ctx, id)
	if record == nil {
		return false
	}
	s.cache.Del(ctx, sessionKey(id))

	ids := s.readUserIndex(ctx, record.UserID)
	filtered := ids[:0]
	for _, existing := range ids {
		if existing != id {
			filtered = append(filtered, existing)
		}
	}
	s.writeUserIndex(ctx, record.UserID, filtered)
	return true
}

// InvalidateAllForUser deletes every session the user's index references,
// then the index itself. Returns how many ids were removed. Used for "log
// out everywhere".
func (s *Store) InvalidateAllForUser(ctx context.Context, userID int) int {
	ids := s.readUserIndex(ctx, userID)
	if len(ids) == 0 {
		return 0
	}
	for _, id := range ids {
		s.cache.Del(ctx, sessionKey(id))
	}
	s.cache.Del(ctx, userSessionsKey(userID))
	return len(ids)
}

// CreateImpersonationTicket mints a one-time short-lived token allowing the
// holder to obtain a session as targetUserID. The issuing admin id comes
// from the authenticated support session, never from client input.
func (s *Store) CreateImpersonationTicket(ctx context.Context, adminSession *Record, targetUserID int) Ticket {
	token := uuid.NewString()
	record := Impersonation{
		UserID:    targetUserID,
		AdminID:   adminSession.UserID,
		CreatedAt: s.now().UTC(),
	}
	payload, err := json.Marshal(record)
	if err != nil {
		// Impersonation is plain ints and a timestamp; this cannot happen.
		log.Printf("session: marshal impersonation record: %v", err)
		return Ticket{}
	}
	s.cache.Set(ctx, impersonationKey(token), payload, s.ticketTTL)
	return Ticket{Token: token, ExpiresAt: s.now().UTC().Add(s.ticketTTL)}
}

// RedeemImpersonationTicket consumes a ticket. The cache's get-and-delete
// is the exclusive consumption point, so a concurrent second redemption
// finds nothing. Missing, expired, and already-redeemed tokens are all
// reported the same way: nil.
func (s *Store) RedeemImpersonationTicket(ctx context.Context, token string) *Impersonation {
	if token == "" {
		return nil
	}
	payload, ok := s.cache.GetDel(ctx, impersonationKey(token))
	if !ok {
		return nil
	}
	var record Impersonation
	if err := json.Unmarshal(payload, &record); err != nil {
		log.Printf("session: corrupt impersonation record for token %q: %v", token, err)
		return nil
	}
	return &record
}

func (s *Store) readRecord(ctx context.Context, id string) *Record {
	payload, ok := s.cache.Get(ctx, sessionKey(id))
	if !ok {
		return nil
	}
	var record Record
	if err := json.Unmarshal(payload, &record); err != nil {
		log.Printf("session: corrupt session record %q, dropping: %v", id, err)
		s.cache.Del(ctx, sessionKey(id))
		return nil
	}
	return &record
}

func (s *Store) writeRecord(ctx context.Context, record *Record) {
	payload, err := json.Marshal(record)
	if err != nil {
		log.Printf("session: marshal session record %q: %v", record.ID, err)
		return
	}
	s.cache.Set(ctx, sessionKey(record.ID), payload, s.sessionTTL)
}

func (s *Store) readUserIndex(ctx context.Context, userID int) []string {
	payload, ok := s.cache.Get(ctx, userSessionsKey(userID))
	if !ok {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(payload, &ids); err != nil {
		log.Printf("session: corrupt session index for user %d, dropping: %v", userID, err)
		s.cache.Del(ctx, userSessionsKey(userID))
		return nil
	}
	return ids
}

// writeUserIndex re-saves the whole index with the session TTL so the index
// and its sessions age out together. An empty index is deleted instead.
func (s *Store) writeUserIndex(ctx context.Context, userID int, ids []string) {
	if len(ids) == 0 {
		s.cache.Del(ctx, userSessionsKey(userID))
		return
	}
	payload, err := json.Marshal(ids)
	if err != nil {
		log.Printf("session: marshal session index for user %d: %v", userID, err)
		return
	}
	s.cache.Set(ctx, userSessionsKey(userID), payload, s.sessionTTL)
}

func contains(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

