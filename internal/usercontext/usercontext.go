// Package usercontext assembles the composite view of one customer (profile
// plus cart, wishlist and addresses) and caches it briefly. Every write to
// any constituent must invalidate the snapshot for that user before the
// next read can be trusted.
package usercontext

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopx-dev/shopx/internal/apperr"
	"github.com/shopx-dev/shopx/internal/kvcache"
	"github.com/shopx-dev/shopx/internal/store"
)

const DefaultSnapshotTTL = 120 * time.Second

const snapshotKeyPrefix = "user-context:"

type Snapshot struct {
	User      *store.User     `json:"user"`
	Cart      *store.Cart     `json:"cart"`
	Wishlist  *store.Wishlist `json:"wishlist"`
	Addresses []store.Address `json:"addresses"`
}

// Backend is the slice of the data layer this service reads from,
// satisfied by *store.Store.
type Backend interface {
	GetUser(ctx context.Context, id int) (*store.User, error)
	GetCart(ctx context.Context, userID int) (*store.Cart, error)
	GetWishlist(ctx context.Context, userID int) (*store.Wishlist, error)
	ListAddresses(ctx context.Context, userID int) ([]store.Address, error)
}

type Service struct {
	cache   kvcache.Store
	backend Backend
	ttl     time.Duration
}

func New(cache kvcache.Store, backend Backend, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	return &Service{cache: cache, backend: backend, ttl: ttl}
}

func snapshotKey(userID int) string {
	return snapshotKeyPrefix + strconv.Itoa(userID)
}

// Get returns the cached snapshot or assembles a fresh one: the profile
// first, then cart, wishlist, and addresses fetched concurrently.
func (s *Service) Get(ctx context.Context, userID int) (*Snapshot, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	if payload, ok := s.cache.Get(ctx, snapshotKey(userID)); ok {
		var snapshot Snapshot
		if err := json.Unmarshal(payload, &snapshot); err == nil {
			return &snapshot, nil
		}
		log.Printf("usercontext: corrupt snapshot for user %d, recomputing", userID)
		s.cache.Del(ctx, snapshotKey(userID))
	}

	user, err := s.backend.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("user " + strconv.Itoa(userID) + " not found")
	}

	snapshot := &Snapshot{User: user}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		cart, err := s.backend.GetCart(groupCtx, userID)
		snapshot.Cart = cart
		return err
	})
	group.Go(func() error {
		wishlist, err := s.backend.GetWishlist(groupCtx, userID)
		snapshot.Wishlist = wishlist
		return err
	})
	group.Go(func() error {
		addresses, err := s.backend.ListAddresses(groupCtx, userID)
		snapshot.Addresses = addresses
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(snapshot); err == nil {
		s.cache.Set(ctx, snapshotKey(userID), payload, s.ttl)
	} else {
		log.Printf("usercontext: marshal snapshot for user %d: %v", userID, err)
	}
	return snapshot, nil
}

// Refresh drops the cached snapshot and recomputes it.
func (s *Service) Refresh(ctx context.Context, userID int) (*Snapshot, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	s.cache.Del(ctx, snapshotKey(userID))
	snapshot, err := s.Get(ctx, userID)
	if err != nil {
		log.Printf("usercontext: refresh for user %d failed: %v", userID, err)
		return nil, err
	}
	return snapshot, nil
}

// Invalidate evicts the snapshot. Idempotent; called by every mutation that
// touches a constituent of the snapshot.
func (s *Service) Invalidate(ctx context.Context, userID int) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	s.cache.Del(ctx, snapshotKey(userID))
	return nil
}

func validateUserID(userID int) error {
	if userID <= 0 {
		return apperr.InvalidArgument("a valid user id is required to load the user context")
	}
	return nil
}
