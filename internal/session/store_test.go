package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-client/pkg/auth"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/kv"
)

type failingStore struct {
	kv.Store
	failSet    bool
	failDelete bool
}

func (f failingStore) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.Store.Set(ctx, key, value)
}

func (f failingStore) Delete(ctx context.Context, keys ...string) error {
	if f.failDelete {
		return errors.New("disk gone")
	}
	return f.Store.Delete(ctx, keys...)
}

func openStore(t *testing.T, backing kv.Store) *Store {
	t.Helper()
	s, err := Open(context.Background(), backing, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func TestLoginPersistsAndSetsRole(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	s := openStore(t, backing)

	if s.CurrentRole() != enums.RoleGuest {
		t.Fatalf("expected guest, got %s", s.CurrentRole())
	}
	if err := s.Login(ctx, enums.RoleAdmin, "T"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if s.CurrentRole() != enums.RoleAdmin {
		t.Fatalf("expected admin, got %s", s.CurrentRole())
	}
	if got, _ := backing.Get(ctx, KeyAdminToken); got != "T" {
		t.Fatalf("expected persisted token, got %q", got)
	}
	if got, _ := backing.Get(ctx, KeyIsAdmin); got != "true" {
		t.Fatalf("expected isAdmin flag, got %q", got)
	}
}

func TestRolesAreIndependent(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	s := openStore(t, backing)

	if err := s.Login(ctx, enums.RoleCustomer, "c-1"); err != nil {
		t.Fatalf("customer login: %v", err)
	}
	if err := s.Login(ctx, enums.RoleAdmin, "a-1"); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if s.CurrentRole() != enums.RoleAdmin {
		t.Fatalf("admin should take precedence, got %s", s.CurrentRole())
	}

	if err := s.Logout(ctx, enums.RoleAdmin); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if s.CurrentRole() != enums.RoleCustomer {
		t.Fatalf("expected customer after admin logout, got %s", s.CurrentRole())
	}
	if token, ok := s.Token(enums.RoleCustomer); !ok || token != "c-1" {
		t.Fatalf("customer token lost: %q %v", token, ok)
	}
	if _, ok, _ := kv.Lookup(ctx, backing, KeyIsAdmin); ok {
		t.Fatalf("isAdmin flag should be cleared")
	}
}

func TestOpenRestoresPersistedTokens(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	_ = backing.Set(ctx, KeyCustomerToken, "c-2")

	s := openStore(t, backing)
	if s.CurrentRole() != enums.RoleCustomer {
		t.Fatalf("expected customer, got %s", s.CurrentRole())
	}
	if s.IsAuthenticated(enums.RoleAdmin) {
		t.Fatalf("admin should not be authenticated")
	}
}

func TestLoginRejectsEmptyTokenAndGuest(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, kv.NewMemory())

	if err := s.Login(ctx, enums.RoleAdmin, "  "); !pkgerrors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := s.Login(ctx, enums.RoleGuest, "x"); !pkgerrors.IsValidation(err) {
		t.Fatalf("expected validation error for guest, got %v", err)
	}
	if s.CurrentRole() != enums.RoleGuest {
		t.Fatalf("expected guest, got %s", s.CurrentRole())
	}
}

func TestLoginFailureLeavesSessionUnchanged(t *testing.T) {
	s := openStore(t, failingStore{Store: kv.NewMemory(), failSet: true})

	err := s.Login(context.Background(), enums.RoleAdmin, "T")
	if err == nil {
		t.Fatalf("expected error")
	}
	if s.IsAuthenticated(enums.RoleAdmin) {
		t.Fatalf("token should not be held after a failed persist")
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, kv.NewMemory())

	if err := s.Logout(ctx, enums.RoleAdmin); err != nil {
		t.Fatalf("logout without session: %v", err)
	}
	if err := s.Logout(ctx, enums.RoleGuest); err != nil {
		t.Fatalf("logout guest: %v", err)
	}
}

func TestLogoutDropsTokenEvenWhenDeleteFails(t *testing.T) {
	ctx := context.Background()
	backing := kv.NewMemory()
	_ = backing.Set(ctx, KeyAdminToken, "T")
	s := openStore(t, backing)

	s.kv = failingStore{Store: backing, failDelete: true}
	if err := s.Logout(ctx, enums.RoleAdmin); err == nil {
		t.Fatalf("expected persistence error")
	}
	if s.IsAuthenticated(enums.RoleAdmin) {
		t.Fatalf("admin token should be dropped from memory")
	}
}

func TestSubscribeNotifiesOnRoleChange(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, kv.NewMemory())

	var seen []enums.Role
	unsubscribe := s.Subscribe(func(role enums.Role) {
		seen = append(seen, role)
	})

	_ = s.Login(ctx, enums.RoleCustomer, "c")
	_ = s.Login(ctx, enums.RoleCustomer, "c2")
	_ = s.Login(ctx, enums.RoleAdmin, "a")
	_ = s.Logout(ctx, enums.RoleAdmin)
	unsubscribe()
	_ = s.Logout(ctx, enums.RoleCustomer)

	want := []enums.Role{enums.RoleCustomer, enums.RoleAdmin, enums.RoleCustomer}
	if len(seen) != len(want) {
		t.Fatalf("expected %v, got %v", want, seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, seen)
		}
	}
}

func TestClaimsPeeksSignedTokens(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, kv.NewMemory())

	token, err := auth.Mint("secret", "api", time.Hour, time.Now(), "user-7", enums.RoleCustomer)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	_ = s.Login(ctx, enums.RoleCustomer, token)
	_ = s.Login(ctx, enums.RoleAdmin, "opaque")

	claims, ok := s.Claims(enums.RoleCustomer)
	if !ok || claims.Subject != "user-7" {
		t.Fatalf("expected claims for user-7, got %+v %v", claims, ok)
	}
	if _, ok := s.Claims(enums.RoleAdmin); ok {
		t.Fatalf("opaque token should not yield claims")
	}
}

func TestExpireDropsRoleOnlyForAuthFailures(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, kv.NewMemory())
	if err := s.Login(ctx, enums.RoleCustomer, "c-1"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := s.Expire(ctx, enums.RoleCustomer, pkgerrors.Remote(500, "boom")); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if !s.IsAuthenticated(enums.RoleCustomer) {
		t.Fatal("non-auth failure must keep the token")
	}

	if err := s.Expire(ctx, enums.RoleCustomer, pkgerrors.Remote(401, "token expired")); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if s.IsAuthenticated(enums.RoleCustomer) {
		t.Fatal("401 must drop the customer token")
	}
	if s.CurrentRole() != enums.RoleGuest {
		t.Fatalf("expected guest, got %s", s.CurrentRole())
	}
}
