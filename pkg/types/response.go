package types

// SuccessEnvelope wraps console responses.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ProductList is the remote `GET /api/v1/products` body.
type ProductList struct {
	Products []Product `json:"products"`
}

// OrderList is the remote `GET /api/v1/orders` body.
type OrderList struct {
	Orders []Order `json:"orders"`
}

// RemoteErrorBody is the failure body of the remote API. Some endpoints use
// `error` instead of `message`.
type RemoteErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
