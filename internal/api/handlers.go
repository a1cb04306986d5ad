// Package api implements the HTTP handlers for the social video service:
// account signup and login, password reset, profile management, and the
// video feed with likes and comments.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dhaval110/social-media-backend/internal/auth"
	"github.com/dhaval110/social-media-backend/internal/auth/google"
	"github.com/dhaval110/social-media-backend/internal/mail"
	"github.com/dhaval110/social-media-backend/internal/observability/logging"
	"github.com/dhaval110/social-media-backend/internal/storage"
)

const internalErrorMessage = "Internal server error"

// timeNow is a seam for tests.
var timeNow = time.Now

// MediaStore is the slice of the media layer the handlers need.
type MediaStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

type Handler struct {
	Store     storage.Repository
	Tokens    *auth.TokenManager
	Google    google.Verifier
	Mailer    mail.Sender
	Media     MediaStore
	BaseURL   string
	AppScheme string
	Logger    *slog.Logger
}

func NewHandler(store storage.Repository, tokens *auth.TokenManager) *Handler {
	return &Handler{Store: store, Tokens: tokens}
}

func (h *Handler) logger(r *http.Request) *slog.Logger {
	if ctxLogger := logging.LoggerFromContext(r.Context()); ctxLogger != nil {
		return ctxLogger
	}
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteMessage writes the uniform {"message": ...} response body used for
// both failures and acknowledgements.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// internalError logs the underlying failure and responds with an opaque 500.
// Raw error text never reaches the client.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger(r).Error(op, "error", err)
	WriteMessage(w, http.StatusInternalServerError, internalErrorMessage)
}

func decodeJSON(r *http.Request, dest interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

// Root answers the bare path with a welcome message. Mobile clients use it
// as a connectivity smoke check.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteMessage(w, http.StatusNotFound, "not found")
		return
	}
	WriteMessage(w, http.StatusOK, "Welcome to the social media API")
}

// Health reports process and datastore liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := h.Store.Ping(r.Context()); err != nil {
		h.logger(r).Error("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
