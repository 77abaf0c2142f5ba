package cart

import (
	"context"
	"encoding/json"

	pkgerrors "github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/kv"
)

// Key is the durable storage key for the cart snapshot.
const Key = "cart"

// Load restores the cart saved under Key. A missing key leaves it empty.
func Load(ctx context.Context, store kv.Store, c *Store) error {
	raw, ok, err := kv.Lookup(ctx, store, Key)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	if !ok || raw == "" {
		c.Restore(nil)
		return nil
	}
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	c.Restore(lines)
	return nil
}

// Save writes the cart snapshot under Key, deleting the key when empty.
func Save(ctx context.Context, store kv.Store, c *Store) error {
	lines := c.Snapshot()
	if len(lines) == 0 {
		if err := store.Delete(ctx, Key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}
		return nil
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := store.Set(ctx, Key, string(raw)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
	}
	return nil
}
