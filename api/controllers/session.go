package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-client/api/responses"
	"github.com/angelmondragon/storefront-client/api/validators"
	"github.com/angelmondragon/storefront-client/pkg/auth"
	"github.com/angelmondragon/storefront-client/pkg/enums"
	"github.com/angelmondragon/storefront-client/pkg/errors"
	"github.com/angelmondragon/storefront-client/pkg/logger"
	"github.com/angelmondragon/storefront-client/pkg/types"
)

type sessionService interface {
	CurrentRole() enums.Role
	IsAuthenticated(role enums.Role) bool
	Claims(role enums.Role) (*auth.Claims, bool)
	Login(ctx context.Context, role enums.Role, token string) error
	Logout(ctx context.Context, role enums.Role) error
}

type authClient interface {
	Login(ctx context.Context, role enums.Role, creds types.Credentials) (*types.LoginResult, error)
	CreateAccount(ctx context.Context, req types.AccountRequest) error
}

type identityView struct {
	Role          enums.Role `json:"role"`
	Authenticated bool       `json:"authenticated"`
	Subject       string     `json:"subject,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

type sessionView struct {
	Role       enums.Role     `json:"role"`
	Identities []identityView `json:"identities"`
}

// Token login stores a token obtained elsewhere; credential login exchanges
// email and password with the API first.
type loginRequest struct {
	Role     string `json:"role" validate:"required,oneof=admin customer"`
	Token    string `json:"token,omitempty" validate:"required_without=Email"`
	Email    string `json:"email,omitempty" validate:"required_without=Token"`
	Password string `json:"password,omitempty" validate:"required_with=Email"`
}

type logoutRequest struct {
	Role string `json:"role" validate:"required,oneof=admin customer"`
}

func buildSessionView(sessions sessionService) sessionView {
	view := sessionView{Role: sessions.CurrentRole()}
	for _, role := range []enums.Role{enums.RoleAdmin, enums.RoleCustomer} {
		identity := identityView{Role: role, Authenticated: sessions.IsAuthenticated(role)}
		if claims, ok := sessions.Claims(role); ok {
			identity.Subject = claims.Subject
			if exp := claims.Expiry(); !exp.IsZero() {
				identity.ExpiresAt = &exp
			}
		}
		view.Identities = append(view.Identities, identity)
	}
	return view
}

func SessionGet(sessions sessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, buildSessionView(sessions))
	}
}

func SessionLogin(sessions sessionService, client authClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "invalid role"))
			return
		}

		token := req.Token
		if token == "" {
			result, err := client.Login(r.Context(), role, types.Credentials{Email: req.Email, Password: req.Password})
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			token = result.Token
		}

		if err := sessions.Login(r.Context(), role, token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buildSessionView(sessions))
	}
}

func SessionLogout(sessions sessionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req logoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseRole(req.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, errors.Wrap(errors.CodeValidation, err, "invalid role"))
			return
		}
		if err := sessions.Logout(r.Context(), role); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buildSessionView(sessions))
	}
}

func AccountCreate(client authClient, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AccountRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := client.CreateAccount(r.Context(), req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"email": req.Email})
	}
}
