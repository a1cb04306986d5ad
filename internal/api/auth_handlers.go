package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/dhaval110/social-media-backend/internal/auth"
	"github.com/dhaval110/social-media-backend/internal/auth/google"
	"github.com/dhaval110/social-media-backend/internal/mail"
	"github.com/dhaval110/social-media-backend/internal/models"
	"github.com/dhaval110/social-media-backend/internal/observability/metrics"
	"github.com/dhaval110/social-media-backend/internal/storage"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	IDToken string `json:"idToken"`
}

type resetPasswordRequest struct {
	Email string `json:"email"`
}

type newPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type tokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (h *Handler) issueToken(user models.User) (string, error) {
	return h.Tokens.Issue(auth.Identity{UserID: user.ID, Name: user.Name, Email: user.Email})
}

// Signup registers a password-based account and returns a session token.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		WriteMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(w, r, "hash password", err)
		return
	}

	user, err := h.Store.CreateUser(r.Context(), storage.CreateUserParams{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			WriteMessage(w, http.StatusBadRequest, "Email already registered")
			return
		}
		h.internalError(w, r, "create user", err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.internalError(w, r, "issue session token", err)
		return
	}
	metrics.ObserveAuthEvent("signup")
	h.logger(r).Info("user registered", "user_id", user.ID)
	writeJSON(w, http.StatusOK, tokenResponse{Message: "User successfully registered", Token: token})
}

// Login authenticates an email/password pair and returns a session token.
// Unknown emails, federation-only accounts, and wrong passwords all produce
// the same response so callers cannot probe for registered addresses.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		WriteMessage(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteMessage(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.internalError(w, r, "look up user", err)
		return
	}
	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		WriteMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.internalError(w, r, "issue session token", err)
		return
	}
	metrics.ObserveAuthEvent("login")
	h.logger(r).Info("user logged in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, tokenResponse{Message: "Login successful", Token: token})
}

// GoogleLogin validates a Google ID token and registers a federation-only
// account for its email. Accounts are never linked: an email that already
// exists, password-based or not, is rejected as a conflict.
func (h *Handler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req googleLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		WriteMessage(w, http.StatusBadRequest, "idToken is required")
		return
	}
	if h.Google == nil {
		WriteMessage(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}

	profile, err := h.Google.Verify(r.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, google.ErrInvalidIDToken) {
			WriteMessage(w, http.StatusUnauthorized, "Invalid Google token")
			return
		}
		h.internalError(w, r, "verify google token", err)
		return
	}

	user, err := h.Store.CreateUser(r.Context(), storage.CreateUserParams{
		Email:      profile.Email,
		Name:       profile.Name,
		ProfilePic: profile.Picture,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			WriteMessage(w, http.StatusBadRequest, "Email already registered")
			return
		}
		h.internalError(w, r, "create federated user", err)
		return
	}

	token, err := h.issueToken(user)
	if err != nil {
		h.internalError(w, r, "issue session token", err)
		return
	}
	metrics.ObserveAuthEvent("google_login")
	h.logger(r).Info("federated user registered", "user_id", user.ID)
	writeJSON(w, http.StatusOK, tokenResponse{Message: "User successfully registered", Token: token})
}

// ResetPassword opens a password-reset window for the account and emails a
// redemption link. The 404 for unknown emails discloses account existence;
// the mobile client relies on it to prompt for signup instead.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req resetPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		WriteMessage(w, http.StatusBadRequest, "Email is required")
		return
	}

	token, err := auth.NewResetToken()
	if err != nil {
		h.internalError(w, r, "mint reset token", err)
		return
	}

	user, err := h.Store.BeginPasswordReset(r.Context(), req.Email, token, timeNow().Add(auth.ResetTokenTTL))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteMessage(w, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(w, r, "begin password reset", err)
		return
	}

	msg, err := mail.BuildPasswordResetEmail(h.BaseURL, user.Email, token)
	if err != nil {
		h.internalError(w, r, "build reset email", err)
		return
	}
	if err := h.Mailer.Send(r.Context(), msg); err != nil {
		metrics.ObserveMailDelivery(false)
		h.internalError(w, r, "send reset email", err)
		return
	}
	metrics.ObserveMailDelivery(true)
	metrics.ObserveAuthEvent("reset_request")
	h.logger(r).Info("password reset requested", "user_id", user.ID)
	WriteMessage(w, http.StatusOK, "Reset link sent to your email")
}

// NewPassword redeems a reset token and stores the replacement password.
func (h *Handler) NewPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req newPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Token == "" || req.NewPassword == "" {
		WriteMessage(w, http.StatusBadRequest, "Token and new password are required")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.internalError(w, r, "hash password", err)
		return
	}

	user, err := h.Store.CompletePasswordReset(r.Context(), req.Token, hash)
	if err != nil {
		if errors.Is(err, storage.ErrResetTokenInvalid) {
			WriteMessage(w, http.StatusBadRequest, "Invalid or expired reset token")
			return
		}
		h.internalError(w, r, "complete password reset", err)
		return
	}
	metrics.ObserveAuthEvent("reset_complete")
	h.logger(r).Info("password reset completed", "user_id", user.ID)
	WriteMessage(w, http.StatusOK, "Password reset successful")
}

// ResetRedirect bounces the emailed reset link into the mobile app via its
// custom URL scheme.
func (h *Handler) ResetRedirect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if token == "" {
		WriteMessage(w, http.StatusBadRequest, "Token is required")
		return
	}
	scheme := h.AppScheme
	if scheme == "" {
		scheme = "app"
	}
	target := fmt.Sprintf("%s://reset-password/%s", scheme, url.PathEscape(token))
	http.Redirect(w, r, target, http.StatusFound)
}
