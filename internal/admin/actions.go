package admin

import (
	"strings"

	"github.com/angelmondragon/storefront-client/pkg/types"
)

// ActionKey identifies one triggerable action. Actions on different targets
// (two orders, say) have different keys and may run side by side.
type ActionKey string

const (
	KeyLoad          ActionKey = "load"
	KeyCreateProduct ActionKey = "create_product"
)

func ApproveKey(orderID types.ID) ActionKey {
	return ActionKey("approve:" + orderID.String())
}

func FeatureKey(productID types.ID) ActionKey {
	return ActionKey("feature:" + productID.String())
}

// Action is the key without its target, used as a metrics label.
func (k ActionKey) Action() string {
	action, _, _ := strings.Cut(string(k), ":")
	return action
}
