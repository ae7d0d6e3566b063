/*
Package handler provides the HTTP handlers and routing for the chat server.

This file contains the account and session endpoints: registration, login,
logout, and the profile lookups. These implement the auth collaborator the
chat core consumes; the core itself only ever sees session tokens.
*/
package handler

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"pulsechat/internal/app/account"
	"pulsechat/internal/app/user"
	"pulsechat/internal/pkg/errs"
	"pulsechat/internal/pkg/logx"
	"pulsechat/internal/pkg/req"
	"pulsechat/internal/pkg/resp"
)

const (
	maxDisplayNameRunes = 50
	maxExternalIDRunes  = 100
	minPasswordRunes    = 6
	maxPasswordRunes    = 50
)

// identityFromRequest resolves the bearer token to an identity. ok is false
// for missing or invalid tokens.
func identityFromRequest(deps *AppDeps, r *http.Request) (user.Identity, string, bool) {
	token := req.BearerToken(r)
	if token == "" {
		return user.Identity{}, "", false
	}

	identity, ok := deps.Sessions.Validate(token)
	return identity, token, ok
}

type registerInput struct {
	Name     string `json:"name"`
	UID      string `json:"uid"`
	Password string `json:"password"`
}

// HandleRegister creates a new account and issues a session token for it.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input registerInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Name == "" || utf8.RuneCountInString(input.Name) > maxDisplayNameRunes {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidDisplayName))
			return
		}

		if input.UID == "" || utf8.RuneCountInString(input.UID) > maxExternalIDRunes {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidExternalID))
			return
		}

		passwordLen := utf8.RuneCountInString(input.Password)
		if passwordLen < minPasswordRunes || passwordLen > maxPasswordRunes {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
			return
		}

		identity, err := deps.Accounts.Register(r.Context(), input.Name, input.UID, input.Password)
		if err != nil {
			if errors.Is(err, account.ErrDuplicateExternalID) {
				logx.Warn("registration conflict: external id already exists", "uid", input.UID)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create account")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		token, err := deps.Sessions.Issue(identity.ID)
		if err != nil {
			logx.Error(err, "failed to issue session after registration")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"user":  identity,
		})
	}
}

type loginInput struct {
	UID      string `json:"uid"`
	Password string `json:"password"`
}

// HandleLogin verifies credentials and issues a session token. Unknown id
// and wrong password produce the identical response.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input loginInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		identity, err := deps.Accounts.Authenticate(r.Context(), input.UID, input.Password)
		if err != nil {
			logx.Warn("login failed", "uid", input.UID)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		token, err := deps.Sessions.Issue(identity.ID)
		if err != nil {
			logx.Error(err, "failed to issue session after login")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"user":  identity,
		})
	}
}

// HandleLogout revokes the presented session token. Logging out an already
// revoked token succeeds; the outcome is the same.
func HandleLogout(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := req.BearerToken(r)
		if token != "" {
			deps.Sessions.Revoke(token)
		}

		resp.RespondSuccess(w, r, map[string]string{
			"message": "Logged out successfully",
		})
	}
}

// HandleGetProfile returns the authenticated user's identity.
func HandleGetProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _, ok := identityFromRequest(deps, r)
		if !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": identity,
		})
	}
}

// HandleListUsers returns every registered identity.
func HandleListUsers(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := identityFromRequest(deps, r); !ok {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		identities, err := deps.Accounts.Identities(r.Context())
		if err != nil {
			logx.Error(err, "failed to list accounts")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"users": identities,
		})
	}
}
