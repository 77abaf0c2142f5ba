package app

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-client/internal/remote/remotetest"
	"github.com/angelmondragon/storefront-client/internal/session"
	"github.com/angelmondragon/storefront-client/pkg/config"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/kv"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		API: config.APIConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		Store: config.StoreConfig{
			Driver: config.StoreDriverFile,
			Path:   filepath.Join(t.TempDir(), "state.json"),
		},
	}
}

func TestOpenPersistsSessionAndCartAcrossRuns(t *testing.T) {
	ctx := context.Background()
	api := remotetest.New()
	defer api.Close()
	cfg := testConfig(t, api.URL)

	first, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	require.NoError(t, first.Sessions.Login(ctx, enums.RoleCustomer, api.Token(enums.RoleCustomer)))
	stop := first.PersistCart(ctx)
	products, err := first.Client.ListProducts(ctx)
	require.NoError(t, err)
	first.Cart.AddItem(products[0], 2)
	stop()
	require.NoError(t, first.Close())

	second, err := Open(ctx, cfg, nil)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, enums.RoleCustomer, second.Sessions.CurrentRole())
	assert.Equal(t, 2, second.Cart.Count())
	assert.Equal(t, enums.RoleCustomer, second.Guard.Role())
}

func TestOpenStoreSQLite(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Store: config.StoreConfig{
			Driver: config.StoreDriverSQLite,
			DSN:    "file:" + filepath.Join(t.TempDir(), "state.db"),
		},
	}
	store, err := OpenStore(ctx, cfg, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, session.KeyIsAdmin, "true"))
	value, ok, err := kv.Lookup(ctx, store, session.KeyIsAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "true", value)
}

func TestOpenStoreRejectsUnknownDriver(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{Store: config.StoreConfig{Driver: "etcd"}}, nil)
	assert.Error(t, err)
}

func TestAdminWorkflowUsesSharedSession(t *testing.T) {
	ctx := context.Background()
	api := remotetest.New()
	defer api.Close()

	a, err := New(ctx, testConfig(t, api.URL), nil, kv.NewMemory())
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Sessions.Login(ctx, enums.RoleAdmin, api.Token(enums.RoleAdmin)))

	wf, err := a.NewAdminWorkflow()
	require.NoError(t, err)
	defer wf.Dispose()
	require.NoError(t, wf.Mount(ctx))
	assert.Len(t, wf.Snapshot().Orders, 1)
}

func TestRejectedOrderSignsCustomerOut(t *testing.T) {
	ctx := context.Background()
	api := remotetest.New()
	defer api.Close()

	a, err := New(ctx, testConfig(t, api.URL), nil, kv.NewMemory())
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Sessions.Login(ctx, enums.RoleCustomer, "stale"))
	a.Cart.AddItem(api.Products()[0], 1)

	api.Fail(remotetest.PlaceOrder, http.StatusUnauthorized, "token expired")
	_, err = a.Checkout.Submit(ctx, "Grace")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsAuth(err))
	assert.False(t, a.Sessions.IsAuthenticated(enums.RoleCustomer))
	assert.Equal(t, enums.RoleGuest, a.Guard.Role())
	assert.Equal(t, 1, a.Cart.Count())
}
