package admin_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-client/internal/admin"
	"github.com/angelmondragon/storefront-client/internal/remote"
	"github.com/angelmondragon/storefront-client/internal/remote/remotetest"
	"github.com/angelmondragon/storefront-client/internal/session"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/kv"
	"github.com/angelmondragon/storefront-client/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	api      *remotetest.API
	sessions *session.Store
	workflow *admin.Workflow
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	api := remotetest.New()
	t.Cleanup(api.Close)

	sessions, err := session.Open(ctx, kv.NewMemory(), nil)
	require.NoError(t, err)
	require.NoError(t, sessions.Login(ctx, enums.RoleAdmin, api.Token(enums.RoleAdmin)))

	client, err := remote.NewClient(api.URL, sessions, remote.WithTimeout(5*time.Second))
	require.NoError(t, err)

	workflow, err := admin.New(admin.Params{API: client, Session: sessions})
	require.NoError(t, err)
	t.Cleanup(workflow.Dispose)

	return &harness{api: api, sessions: sessions, workflow: workflow}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestMountLoadsOrdersAndProducts(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.workflow.Mount(context.Background()))
	snap := h.workflow.Snapshot()
	assert.Len(t, snap.Orders, 1)
	assert.Len(t, snap.Products, 2)
	assert.Empty(t, snap.Error)
	assert.Equal(t, enums.ActionStateSuccess, h.workflow.ActionState(admin.KeyLoad))
}

func TestMountRecordsFailuresIndependently(t *testing.T) {
	h := newHarness(t)
	h.api.Fail(remotetest.ListProducts, http.StatusInternalServerError, "catalog offline")

	err := h.workflow.Mount(context.Background())
	require.Error(t, err)
	snap := h.workflow.Snapshot()
	assert.Len(t, snap.Orders, 1)
	assert.Empty(t, snap.Products)
	assert.Empty(t, snap.OrdersError)
	assert.Contains(t, snap.ProductsError, "catalog offline")
	assert.Equal(t, "catalog offline", snap.Error)
}

func TestApproveAndRefreshRefetchesOnceOnSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.workflow.ApproveAndRefresh(ctx, "7"))
	assert.EqualValues(t, 1, h.api.Calls(remotetest.ApproveOrder))
	assert.EqualValues(t, 1, h.api.Calls(remotetest.ListOrders))
	assert.Equal(t, enums.OrderStatusApproved, h.workflow.Snapshot().Orders[0].Status)
	assert.Equal(t, enums.ActionStateSuccess, h.workflow.ActionState(admin.ApproveKey("7")))
}

func TestApproveAndRefreshSkipsRefetchOnFailure(t *testing.T) {
	h := newHarness(t)

	err := h.workflow.ApproveAndRefresh(context.Background(), "999")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, pkgerrors.StatusOf(err))
	assert.EqualValues(t, 1, h.api.Calls(remotetest.ApproveOrder))
	assert.Zero(t, h.api.Calls(remotetest.ListOrders))
	assert.Equal(t, enums.ActionStateFailed, h.workflow.ActionState(admin.ApproveKey("999")))
	assert.Equal(t, "order not found", h.workflow.Error())
}

func TestUnauthorizedForcesLogoutAndStopsCalls(t *testing.T) {
	h := newHarness(t)
	h.api.Fail(remotetest.ListOrders, http.StatusUnauthorized, "token expired")
	ctx := context.Background()

	err := h.workflow.Mount(ctx)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsAuth(err))
	assert.False(t, h.sessions.IsAuthenticated(enums.RoleAdmin))
	assert.EqualValues(t, 1, h.api.Calls(remotetest.ListOrders))

	err = h.workflow.Mount(ctx)
	assert.True(t, pkgerrors.IsAuth(err))
	assert.EqualValues(t, 1, h.api.Calls(remotetest.ListOrders))

	h.api.Reset()
	require.NoError(t, h.sessions.Login(ctx, enums.RoleAdmin, h.api.Token(enums.RoleAdmin)))
	require.NoError(t, h.workflow.Mount(ctx))
	assert.EqualValues(t, 2, h.api.Calls(remotetest.ListOrders))
	assert.Empty(t, h.workflow.Error())
}

func TestDuplicateApproveWhilePendingIsRejected(t *testing.T) {
	h := newHarness(t)
	release := h.api.Hold(remotetest.ApproveOrder)
	defer release()

	done := make(chan error, 1)
	go func() {
		done <- h.workflow.ApproveAndRefresh(context.Background(), "7")
	}()
	waitFor(t, func() bool { return h.api.Calls(remotetest.ApproveOrder) == 1 })
	assert.True(t, h.workflow.ActionState(admin.ApproveKey("7")).Busy())

	err := h.workflow.ApproveAndRefresh(context.Background(), "7")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.CodeOf(err))

	release()
	require.NoError(t, <-done)
	assert.EqualValues(t, 1, h.api.Calls(remotetest.ApproveOrder))
	assert.EqualValues(t, 1, h.api.Calls(remotetest.ListOrders))
}

func TestSubmitNewProductKeepsFieldsOnBadNumber(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.workflow.SetField(admin.FieldName, "Lamp"))
	require.NoError(t, h.workflow.SetField(admin.FieldPrice, "twelve"))
	require.NoError(t, h.workflow.SetField(admin.FieldStock, "3"))
	require.NoError(t, h.workflow.SetField(admin.FieldImage, "lamp.png"))

	_, err := h.workflow.SubmitNewProduct(context.Background())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Equal(t, "twelve", h.workflow.Form().Price)
	assert.Equal(t, "Lamp", h.workflow.Form().Name)
	assert.Zero(t, h.api.Calls(remotetest.CreateProduct))
}

func TestSubmitNewProductEmptyNameNeverReachesNetwork(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.workflow.SetField(admin.FieldPrice, "2"))
	require.NoError(t, h.workflow.SetField(admin.FieldStock, "1"))
	require.NoError(t, h.workflow.SetField(admin.FieldImage, "x.png"))

	_, err := h.workflow.SubmitNewProduct(context.Background())
	assert.True(t, pkgerrors.IsValidation(err))
	assert.Zero(t, h.api.Calls(remotetest.CreateProduct))
	assert.Equal(t, "x.png", h.workflow.Form().Image)
}

func TestSubmitNewProductResetsFormAndRefreshes(t *testing.T) {
	h := newHarness(t)
	for field, value := range map[string]string{
		admin.FieldName:  "Lamp",
		admin.FieldPrice: "12.50",
		admin.FieldStock: "3",
		admin.FieldImage: "lamp.png",
	} {
		require.NoError(t, h.workflow.SetField(field, value))
	}

	created, err := h.workflow.SubmitNewProduct(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Lamp", created.Name)
	assert.Equal(t, admin.Form{}, h.workflow.Form())
	assert.Len(t, h.workflow.Snapshot().Products, 3)
	assert.EqualValues(t, 1, h.api.Calls(remotetest.ListProducts))
}

func TestSetFieldRejectsUnknownField(t *testing.T) {
	h := newHarness(t)
	assert.True(t, pkgerrors.IsValidation(h.workflow.SetField("colour", "red")))
}

func TestFeatureAndRefresh(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.workflow.FeatureAndRefresh(context.Background(), "2"))
	products := h.workflow.Snapshot().Products
	require.Len(t, products, 2)
	assert.True(t, products[1].Featured)
}

func TestSuccessClearsPreviousError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.Error(t, h.workflow.FeatureAndRefresh(ctx, "404"))
	assert.NotEmpty(t, h.workflow.Error())
	require.NoError(t, h.workflow.FeatureAndRefresh(ctx, "1"))
	assert.Empty(t, h.workflow.Error())

	require.Error(t, h.workflow.FeatureAndRefresh(ctx, "404"))
	h.workflow.ClearError()
	assert.Empty(t, h.workflow.Error())
}

func TestDisposeCancelsInFlightAndDropsResults(t *testing.T) {
	h := newHarness(t)
	release := h.api.Hold(remotetest.ListOrders)
	defer release()

	done := make(chan error, 1)
	go func() {
		done <- h.workflow.Mount(context.Background())
	}()
	waitFor(t, func() bool { return h.api.Calls(remotetest.ListOrders) == 1 })

	h.workflow.Dispose()
	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("mount did not return after dispose")
	}
	assert.Empty(t, h.workflow.Snapshot().Orders)
	assert.Empty(t, h.workflow.Snapshot().Products)

	err := h.workflow.ApproveAndRefresh(context.Background(), "7")
	assert.True(t, errors.Is(err, admin.ErrDisposed))
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	h := newHarness(t)
	var states []enums.ActionState
	unsubscribe := h.workflow.Subscribe(func(s admin.Snapshot) {
		states = append(states, s.Actions[admin.FeatureKey("1")])
	})
	defer unsubscribe()

	require.NoError(t, h.workflow.FeatureAndRefresh(context.Background(), "1"))
	require.Len(t, states, 2)
	assert.Equal(t, enums.ActionStatePending, states[0])
	assert.Equal(t, enums.ActionStateSuccess, states[1])
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := admin.New(admin.Params{})
	assert.Error(t, err)

	var api admin.API = stubAPI{}
	_, err = admin.New(admin.Params{API: api})
	assert.Error(t, err)
}

type stubAPI struct{}

func (stubAPI) ListOrders(context.Context) ([]types.Order, error)     { return nil, nil }
func (stubAPI) ListProducts(context.Context) ([]types.Product, error) { return nil, nil }
func (stubAPI) ApproveOrder(context.Context, types.ID) error          { return nil }
func (stubAPI) CreateProduct(context.Context, types.ProductInput) (*types.Product, error) {
	return &types.Product{}, nil
}
func (stubAPI) FeatureProduct(context.Context, types.ID) error { return nil }
