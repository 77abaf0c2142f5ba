// Package session holds the signed-in identities of the storefront client.
// An admin and a customer may be signed in at once; each role has its own
// durable key so neither silently replaces the other.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/angelmondragon/storefront-client/pkg/auth"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/kv"
	"github.com/angelmondragon/storefront-client/pkg/logger"
)

const (
	KeyAdminToken    = "adminToken"
	KeyCustomerToken = "customerToken"
	// KeyIsAdmin mirrors whether an admin token is held. It only drives route
	// visibility; the API authorizes every admin call by token.
	KeyIsAdmin = "isAdmin"
)

// Listener receives the current role after it changes.
type Listener func(role enums.Role)

// Store is the process-wide session service. Open it once at start-up and
// pass it to consumers.
type Store struct {
	mu        sync.RWMutex
	kv        kv.Store
	logg      *logger.Logger
	tokens    map[enums.Role]string
	listeners map[int]Listener
	nextID    int
}

// TokenKey returns the durable key for role's token.
func TokenKey(role enums.Role) (string, bool) {
	switch role {
	case enums.RoleAdmin:
		return KeyAdminToken, true
	case enums.RoleCustomer:
		return KeyCustomerToken, true
	}
	return "", false
}

// Open loads any persisted tokens from store.
func Open(ctx context.Context, store kv.Store, logg *logger.Logger) (*Store, error) {
	if store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session storage is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	s := &Store{
		kv:        store,
		logg:      logg,
		tokens:    map[enums.Role]string{},
		listeners: map[int]Listener{},
	}
	for _, role := range []enums.Role{enums.RoleAdmin, enums.RoleCustomer} {
		key, _ := TokenKey(role)
		token, ok, err := kv.Lookup(ctx, store, key)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load "+key)
		}
		if ok && strings.TrimSpace(token) != "" {
			s.tokens[role] = token
		}
	}
	if err := s.syncAdminFlag(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Login stores token for role. Empty tokens and the guest role are rejected.
func (s *Store) Login(ctx context.Context, role enums.Role, token string) error {
	if !role.Authenticated() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot log in as "+string(role))
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "token is required").
			WithDetails(map[string]string{"token": "is required"})
	}
	key, _ := TokenKey(role)
	if err := s.kv.Set(ctx, key, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist "+key)
	}

	s.mu.Lock()
	before := s.currentRoleLocked()
	s.tokens[role] = token
	after := s.currentRoleLocked()
	s.mu.Unlock()

	if err := s.syncAdminFlag(ctx); err != nil {
		return err
	}
	s.logg.Info(s.logg.WithActorRole(ctx, string(role)), "session.login")
	s.notify(before, after)
	return nil
}

// Logout clears only role's token. It is idempotent, and the in-memory token
// is dropped even when the durable delete fails so it can no longer be used.
func (s *Store) Logout(ctx context.Context, role enums.Role) error {
	key, ok := TokenKey(role)
	if !ok {
		return nil
	}

	s.mu.Lock()
	before := s.currentRoleLocked()
	_, held := s.tokens[role]
	delete(s.tokens, role)
	after := s.currentRoleLocked()
	s.mu.Unlock()

	s.notify(before, after)

	if err := s.kv.Delete(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete "+key)
	}
	if err := s.syncAdminFlag(ctx); err != nil {
		return err
	}
	if held {
		s.logg.Info(s.logg.WithActorRole(ctx, string(role)), "session.logout")
	}
	return nil
}

// Expire logs role out when err reports that the API rejected its token.
// Other errors and the guest role are ignored.
func (s *Store) Expire(ctx context.Context, role enums.Role, err error) error {
	if !role.Authenticated() || !pkgerrors.IsAuth(err) {
		return nil
	}
	s.logg.Warn(s.logg.WithActorRole(ctx, string(role)), "session.expired")
	return s.Logout(context.WithoutCancel(ctx), role)
}

// CurrentRole returns the most privileged role holding a token.
func (s *Store) CurrentRole() enums.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentRoleLocked()
}

func (s *Store) currentRoleLocked() enums.Role {
	for _, role := range enums.RolesByPrivilege() {
		if s.tokens[role] != "" {
			return role
		}
	}
	return enums.RoleGuest
}

// IsAuthenticated reports whether a non-empty token is held for role.
func (s *Store) IsAuthenticated(role enums.Role) bool {
	_, ok := s.Token(role)
	return ok
}

// Token returns the bearer token for role.
func (s *Store) Token(role enums.Role) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token := s.tokens[role]
	return token, token != ""
}

// Claims peeks at role's token for display. Opaque tokens report ok=false.
func (s *Store) Claims(role enums.Role) (*auth.Claims, bool) {
	token, ok := s.Token(role)
	if !ok {
		return nil, false
	}
	claims, err := auth.Peek(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// Subscribe registers fn for role changes and returns the unsubscribe func.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(before, after enums.Role) {
	if before == after {
		return
	}
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(after)
	}
}

func (s *Store) syncAdminFlag(ctx context.Context) error {
	var err error
	if s.IsAuthenticated(enums.RoleAdmin) {
		err = s.kv.Set(ctx, KeyIsAdmin, "true")
	} else {
		err = s.kv.Delete(ctx, KeyIsAdmin)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "sync "+KeyIsAdmin)
	}
	return nil
}
