package httpapi

import (
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/Ruchi2002/Lok-Tantra-Backend-sub000/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string   `json:"access_token"`
	TokenType   string   `json:"token_type"`
	ExpiresIn   int64    `json:"expires_in"`
	UserID      string   `json:"user_id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	TenantID    string   `json:"tenant_id,omitempty"`
	UserType    string   `json:"user_type"`
	Permissions []string `json:"permissions"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "invalid email")
		return
	}

	session, err := a.service.Login(r.Context(), req.Email, req.Password, clientMeta(r))
	if err != nil {
		a.observeLogin("failure")
		if errors.Is(err, auth.ErrUnauthenticated) || errors.Is(err, auth.ErrInvalidInput) {
			unauthorized(w, "invalid credentials")
			return
		}
		writeDomainError(w, err)
		return
	}

	a.observeLogin("success")
	a.cookies.SetAccess(w, session.Token, session.Principal.Kind)
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: session.Token,
		TokenType:   "bearer",
		ExpiresIn:   int64(time.Until(session.ExpiresAt) / time.Second),
		UserID:      session.Principal.ID,
		Email:       session.Principal.Email,
		Name:        session.Principal.Name,
		Role:        session.Principal.Role.String(),
		TenantID:    session.Principal.TenantID,
		UserType:    string(session.Principal.Kind),
		Permissions: sortedPermissions(session.Principal.Permissions),
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}
	a.service.Logout(r.Context(), principal, clientMeta(r))
	a.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

// handleLogoutForce clears the cookie without requiring a valid token, so a
// client stuck with an expired session can always reset itself.
func (a *API) handleLogoutForce(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	a.service.ForceLogout(r.Context(), clientMeta(r))
	a.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]any{"status": "logged_out"})
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id":     principal.ID,
		"email":       principal.Email,
		"name":        principal.Name,
		"role":        principal.Role.String(),
		"tenant_id":   principal.TenantID,
		"user_type":   string(principal.Kind),
		"permissions": sortedPermissions(principal.Permissions),
	})
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

func (a *API) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req passwordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The response is identical whether or not the email exists; the reset
	// token leaves through the mail collaborator, never this response.
	if _, _, err := a.service.RequestPasswordReset(r.Context(), req.Email, clientMeta(r)); err != nil &&
		!errors.Is(err, auth.ErrInvalidInput) {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "if the account exists, a reset link has been sent",
	})
}

type passwordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (a *API) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req passwordResetConfirmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := a.service.ConfirmPasswordReset(r.Context(), req.Token, req.NewPassword, clientMeta(r))
	switch {
	case errors.Is(err, auth.ErrInvalidToken):
		writeErrorCode(w, http.StatusBadRequest, "invalid or expired reset token", "bad_token")
	case errors.Is(err, auth.ErrWeakPassword):
		writeErrorCode(w, http.StatusBadRequest, "password too weak", "weak_password")
	case err != nil:
		writeDomainError(w, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"message": "password updated"})
	}
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, "authentication required")
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	err := a.service.ChangePassword(r.Context(), principal, req.CurrentPassword, req.NewPassword, clientMeta(r))
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		writeErrorCode(w, http.StatusBadRequest, "current password is incorrect", "bad_current_password")
	case errors.Is(err, auth.ErrWeakPassword):
		writeErrorCode(w, http.StatusBadRequest, "password too weak", "weak_password")
	case err != nil:
		writeDomainError(w, err)
	default:
		writeJSON(w, http.StatusOK, map[string]any{"message": "password changed"})
	}
}

type validatePasswordRequest struct {
	Password string `json:"password"`
}

func (a *API) handleValidatePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	var req validatePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, auth.ValidateStrength(req.Password))
}

func sortedPermissions(perms map[string]struct{}) []string {
	out := make([]string, 0, len(perms))
	for name := range perms {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
