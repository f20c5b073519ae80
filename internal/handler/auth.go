package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/expense-tracker/internal/auth"
	"github.com/sakif/expense-tracker/internal/service"
)

// AuthHandler manages the phone-OTP login flow and session management.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRequestCode → accept a phone number, have a code issued
//   - HandleVerify      → check phone+code, set the session cookie
//   - HandleLogout      → clear the session cookie
//   - HandleMe          → return the currently logged-in user's profile
//
// Cookies are set here and only here — the service layer issues tokens but
// knows nothing about HTTP.
type AuthHandler struct {
	authSvc *service.AuthService
	logger  *slog.Logger
}

func NewAuthHandler(authSvc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, logger: logger}
}

// HandleRequestCode issues a verification code.
//
// HTTP: POST /api/auth/request-code
// REQUEST BODY: {"phone": "+15550001111"}
// RESPONSE: {"phone": "+1555***1111"} — plus "devCode" when the server runs
// with the dev SMS provider. The full phone number is never echoed back.
func (h *AuthHandler) HandleRequestCode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.authSvc.IssueCode(r.Context(), req.Phone)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := map[string]string{"phone": result.Phone}
	if result.DevCode != "" {
		resp["devCode"] = result.DevCode
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleVerify checks a submitted code and opens a session.
//
// HTTP: POST /api/auth/verify
// REQUEST BODY: {"phone": "+15550001111", "code": "482913"}
// RESPONSE: {"token": "...", "user": {...}, "firstVerification": true}
//
// The token also lands in an HttpOnly cookie for browser clients; API
// clients can keep using the body token as a Bearer header instead.
func (h *AuthHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Phone string `json:"phone"`
		Code  string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	result, err := h.authSvc.VerifyCode(r.Context(), req.Phone, req.Code)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    result.Token,
		Path:     "/",
		MaxAge:   int(auth.SessionDuration.Seconds()),
		HttpOnly: true, // JavaScript can't read it → XSS can't steal it
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token":             result.Token,
		"user":              result.User,
		"firstVerification": result.FirstVerification,
	})
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /api/auth/logout
//
// The JWT itself stays valid until it expires — stateless tokens can't be
// revoked — but without the cookie the browser no longer presents it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	user, err := h.authSvc.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
