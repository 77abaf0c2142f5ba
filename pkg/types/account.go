package types

// Credentials are posted to the login endpoints.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the login response body.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role,omitempty"`
}

// AccountRequest creates a customer account.
type AccountRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}
