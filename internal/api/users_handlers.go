package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dhaval110/social-media-backend/internal/media"
	"github.com/dhaval110/social-media-backend/internal/observability/metrics"
	"github.com/dhaval110/social-media-backend/internal/storage"
)

const maxProfilePictureBytes = 5 << 20

type updateUserRequest struct {
	Name         *string `json:"name"`
	Email        *string `json:"email"`
	MobileNumber *string `json:"mobileNumber"`
	Location     *string `json:"location"`
	Status       *string `json:"status"`
	DOB          *string `json:"dob"`
}

// Users handles the user collection: GET lists all registered accounts.
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := h.requireIdentity(w, r); !ok {
		return
	}
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.internalError(w, r, "list users", err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UserByID handles a single account: GET returns profile plus uploads, PUT
// updates profile fields, DELETE removes the account. Mutations are allowed
// only on the caller's own account.
func (h *Handler) UserByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/users/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		WriteMessage(w, http.StatusNotFound, "User not found")
		return
	}

	if len(parts) == 2 {
		if parts[1] == "profile-picture" && r.Method == http.MethodPost {
			h.uploadProfilePicture(w, r, identity.UserID, id)
			return
		}
		WriteMessage(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		detail, err := h.Store.GetUserDetail(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				WriteMessage(w, http.StatusNotFound, "User not found")
				return
			}
			h.internalError(w, r, "get user", err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	case http.MethodPut:
		if id != identity.UserID {
			WriteMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		var req updateUserRequest
		if err := decodeJSON(r, &req); err != nil {
			WriteMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		update := storage.UserUpdate{
			Name:         req.Name,
			Email:        req.Email,
			MobileNumber: req.MobileNumber,
			Location:     req.Location,
			Status:       req.Status,
		}
		if req.Email != nil && strings.TrimSpace(*req.Email) == "" {
			WriteMessage(w, http.StatusBadRequest, "Email cannot be empty")
			return
		}
		if req.DOB != nil {
			dob, err := time.Parse(time.RFC3339, *req.DOB)
			if err != nil {
				if dob, err = time.Parse("2006-01-02", *req.DOB); err != nil {
					WriteMessage(w, http.StatusBadRequest, "dob must be an ISO 8601 date")
					return
				}
			}
			update.DOB = &dob
		}
		user, err := h.Store.UpdateUser(r.Context(), id, update)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				WriteMessage(w, http.StatusNotFound, "User not found")
				return
			}
			if errors.Is(err, storage.ErrEmailTaken) {
				WriteMessage(w, http.StatusBadRequest, "Email already registered")
				return
			}
			h.internalError(w, r, "update user", err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	case http.MethodDelete:
		if id != identity.UserID {
			WriteMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		if err := h.Store.DeleteUser(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				WriteMessage(w, http.StatusNotFound, "User not found")
				return
			}
			h.internalError(w, r, "delete user", err)
			return
		}
		WriteMessage(w, http.StatusOK, "User deleted")
	default:
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) uploadProfilePicture(w http.ResponseWriter, r *http.Request, callerID, targetID string) {
	if targetID != callerID {
		WriteMessage(w, http.StatusForbidden, "forbidden")
		return
	}
	if h.Media == nil {
		WriteMessage(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	if err := r.ParseMultipartForm(maxProfilePictureBytes); err != nil {
		WriteMessage(w, http.StatusBadRequest, "image file is required")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		WriteMessage(w, http.StatusBadRequest, "image file is required")
		return
	}
	defer file.Close()

	key := media.ProfilePictureKey(targetID, header.Filename)
	url, err := h.Media.Put(r.Context(), key, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.internalError(w, r, "upload profile picture", err)
		return
	}
	metrics.ObserveUpload("profile_picture")
	user, err := h.Store.SetProfilePicture(r.Context(), targetID, url)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteMessage(w, http.StatusNotFound, "User not found")
			return
		}
		h.internalError(w, r, "store profile picture", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
