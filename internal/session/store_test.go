package session

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/shopx-dev/shopx/internal/kvcache"
)

func newTestStore(t *testing.T, sessionTTL, ticketTTL time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := kvcache.New(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewStore(cache, sessionTTL, ticketTTL), mr
}

func strptr(s string) *string { return &s }

func TestCreateThenGetReturnsSameRecord(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()

	created, err := store.Create(ctx, CreateParams{
		UserID: 42,
		Email:  "ada@example.com",
		Name:   strptr("Ada"),
		Role:   RoleCustomer,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got := store.Get(ctx, created.ID)
	require.NotNil(t, got)
	require.Equal(t, 42, got.UserID)
	require.Equal(t, "ada@example.com", got.Email)
	require.Equal(t, RoleCustomer, got.Role)
	require.Nil(t, got.ImpersonatedBy)
}

func TestCreateMintsUniqueIDs(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		record, err := store.Create(ctx, CreateParams{UserID: 1, Email: "a@b.c", Role: RoleCustomer})
		require.NoError(t, err)
		require.False(t, seen[record.ID], "duplicate session id %q", record.ID)
		seen[record.ID] = true
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	require.Nil(t, store.Get(context.Background(), "no-such-session"))
	require.Nil(t, store.Get(context.Background(), ""))
}

func TestSessionExpiresAfterTTL(t *testing.T) {
	store, mr := newTestStore(t, 10*time.Second, 0)
	ctx := context.Background()

	record, err := store.Create(ctx, CreateParams{UserID: 7, Email: "x@y.z", Role: RoleCustomer})
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)
	require.Nil(t, store.Get(ctx, record.ID))
}

func TestGetSlidesExpiration(t *testing.T) {
	store, mr := newTestStore(t, 100*time.Second, 0)
	ctx := context.Background()

	record, err := store.Create(ctx, CreateParams{UserID: 7, Email: "x@y.z", Role: RoleCustomer})
	require.NoError(t, err)

	// Each access renews the TTL, so an active session outlives the
	// original window.
	mr.FastForward(60 * time.Second)
	require.NotNil(t, store.Get(ctx, record.ID))
	mr.FastForward(60 * time.Second)
	require.NotNil(t, store.Get(ctx, record.ID))

	mr.FastForward(101 * time.Second)
	require.Nil(t, store.Get(ctx, record.ID))
}

func TestInvalidateIsIdempotent(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()

	record, err := store.Create(ctx, CreateParams{UserID: 9, Email: "x@y.z", Role: RoleCustomer})
	require.NoError(t, err)

	require.True(t, store.Invalidate(ctx, record.ID))
	require.Nil(t, store.Get(ctx, record.ID))
	require.False(t, store.Invalidate(ctx, record.ID))
}

func TestInvalidateRemovesIDFromUserIndex(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()

	first, err := store.Create(ctx, CreateParams{UserID: 5, Email: "x@y.z", Role: RoleCustomer})
	require.NoError(t, err)
	second, err := store.Create(ctx, CreateParams{UserID: 5, Email: "x@y.z", Role: RoleCustomer})
	require.NoError(t, err)

	require.True(t, store.Invalidate(ctx, first.ID))

	// Only the surviving session remains indexed for "log out everywhere".
	require.Equal(t, 1, store.InvalidateAllForUser(ctx, 5))
	require.Nil(t, store.Get(ctx, second.ID))
}

func TestInvalidateAllForUser(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()

	a, err := store.Create(ctx, CreateParams{UserID: 3, Email: "a@b.c", Role: RoleCustomer})
	require.NoError(t, err)
	b, err := store.Create(ctx, CreateParams{UserID: 3, Email: "a@b.c", Role: RoleCustomer})
	require.NoError(t, err)
	other, err := store.Create(ctx, CreateParams{UserID: 4, Email: "d@e.f", Role: RoleCustomer})
	require.NoError(t, err)

	require.Equal(t, 2, store.InvalidateAllForUser(ctx, 3))
	require.Nil(t, store.Get(ctx, a.ID))
	require.Nil(t, store.Get(ctx, b.ID))
	require.NotNil(t, store.Get(ctx, other.ID))

	require.Equal(t, 0, store.InvalidateAllForUser(ctx, 3))
}

func TestImpersonationTicketRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, 0, 60*time.Second)
	ctx := context.Background()

	admin := &Record{ID: "admin-session", UserID: 1, Role: RoleSupport}
	ticket := store.CreateImpersonationTicket(ctx, admin, 42)
	require.NotEmpty(t, ticket.Token)
	require.False(t, ticket.ExpiresAt.IsZero())

	redeemed := store.RedeemImpersonationTicket(ctx, ticket.Token)
	require.NotNil(t, redeemed)
	require.Equal(t, 42, redeemed.UserID)
	require.Equal(t, 1, redeemed.AdminID)

	require.Nil(t, store.RedeemImpersonationTicket(ctx, ticket.Token))
}

func TestImpersonationTicketRedeemsExactlyOnceConcurrently(t *testing.T) {
	store, _ := newTestStore(t, 0, 60*time.Second)
	ctx := context.Background()

	admin := &Record{ID: "admin-session", UserID: 1, Role: RoleSupport}
	ticket := store.CreateImpersonationTicket(ctx, admin, 42)

	const attempts = 16
	var hits atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.RedeemImpersonationTicket(ctx, ticket.Token) != nil {
				hits.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), hits.Load())
}

func TestImpersonationTicketExpires(t *testing.T) {
	store, mr := newTestStore(t, 0, 60*time.Second)
	ctx := context.Background()

	admin := &Record{ID: "admin-session", UserID: 1, Role: RoleSupport}
	ticket := store.CreateImpersonationTicket(ctx, admin, 42)

	mr.FastForward(61 * time.Second)
	require.Nil(t, store.RedeemImpersonationTicket(ctx, ticket.Token))
}

func TestUpdateRewritesStoredRecord(t *testing.T) {
	store, _ := newTestStore(t, 0, 0)
	ctx := context.Background()

	record, err := store.Create(ctx, CreateParams{UserID: 8, Email: "old@x.y", Role: RoleCustomer})
	require.NoError(t, err)

	record.Email = "new@x.y"
	record.Name = strptr("New Name")
	store.Update(ctx, record)

	got := store.Get(ctx, record.ID)
	require.NotNil(t, got)
	require.Equal(t, "new@x.y", got.Email)
	require.NotNil(t, got.Name)
	require.Equal(t, "New Name", *got.Name)
}
