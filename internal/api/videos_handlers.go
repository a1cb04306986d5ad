package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dhaval110/social-media-backend/internal/media"
	"github.com/dhaval110/social-media-backend/internal/observability/metrics"
	"github.com/dhaval110/social-media-backend/internal/storage"
)

const maxVideoUploadBytes = 200 << 20

type commentRequest struct {
	Text string `json:"text"`
}

// Videos handles the feed collection: GET returns all videos newest first,
// POST uploads a new video as multipart form data.
func (h *Handler) Videos(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		videos, err := h.Store.ListVideos(r.Context())
		if err != nil {
			h.internalError(w, r, "list videos", err)
			return
		}
		writeJSON(w, http.StatusOK, videos)
	case http.MethodPost:
		h.uploadVideo(w, r, identity.UserID)
	default:
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) uploadVideo(w http.ResponseWriter, r *http.Request, userID string) {
	if h.Media == nil {
		WriteMessage(w, http.StatusInternalServerError, internalErrorMessage)
		return
	}
	if err := r.ParseMultipartForm(maxVideoUploadBytes); err != nil {
		WriteMessage(w, http.StatusBadRequest, "video file is required")
		return
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		WriteMessage(w, http.StatusBadRequest, "Title is required")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		WriteMessage(w, http.StatusBadRequest, "video file is required")
		return
	}
	defer file.Close()

	videoURL, err := h.Media.Put(r.Context(),
		media.VideoKey(userID, header.Filename),
		header.Header.Get("Content-Type"), file)
	if err != nil {
		h.internalError(w, r, "upload video", err)
		return
	}
	metrics.ObserveUpload("video")

	var thumbnailURL string
	if thumb, thumbHeader, err := r.FormFile("thumbnail"); err == nil {
		defer thumb.Close()
		thumbnailURL, err = h.Media.Put(r.Context(),
			media.ThumbnailKey(userID, thumbHeader.Filename),
			thumbHeader.Header.Get("Content-Type"), thumb)
		if err != nil {
			h.internalError(w, r, "upload thumbnail", err)
			return
		}
		metrics.ObserveUpload("thumbnail")
	}

	video, err := h.Store.CreateVideo(r.Context(), storage.CreateVideoParams{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(r.FormValue("description")),
		VideoURL:    videoURL,
		Thumbnail:   thumbnailURL,
	})
	if err != nil {
		h.internalError(w, r, "create video", err)
		return
	}
	h.logger(r).Info("video uploaded", "video_id", video.ID, "user_id", userID)
	writeJSON(w, http.StatusOK, video)
}

// VideoByID handles a single video and its subresources:
//
//	GET    /api/videos/{id}            video with author, counts and comments
//	DELETE /api/videos/{id}            owner-only removal
//	POST   /api/videos/{id}/like       toggle the caller's like
//	GET    /api/videos/{id}/comments   list comments oldest first
//	POST   /api/videos/{id}/comments   add a comment
func (h *Handler) VideoByID(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		WriteMessage(w, http.StatusNotFound, "Video not found")
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "like":
			h.toggleLike(w, r, id, identity.UserID)
		case "comments":
			h.videoComments(w, r, id, identity.UserID)
		default:
			WriteMessage(w, http.StatusNotFound, "not found")
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		video, err := h.Store.GetVideo(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				WriteMessage(w, http.StatusNotFound, "Video not found")
				return
			}
			h.internalError(w, r, "get video", err)
			return
		}
		writeJSON(w, http.StatusOK, video)
	case http.MethodDelete:
		video, err := h.Store.GetVideo(r.Context(), id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				WriteMessage(w, http.StatusNotFound, "Video not found")
				return
			}
			h.internalError(w, r, "get video", err)
			return
		}
		if video.UserID != identity.UserID {
			WriteMessage(w, http.StatusForbidden, "forbidden")
			return
		}
		if err := h.Store.DeleteVideo(r.Context(), id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				WriteMessage(w, http.StatusNotFound, "Video not found")
				return
			}
			h.internalError(w, r, "delete video", err)
			return
		}
		WriteMessage(w, http.StatusOK, "Video deleted")
	default:
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) toggleLike(w http.ResponseWriter, r *http.Request, videoID, userID string) {
	if r.Method != http.MethodPost {
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	liked, count, err := h.Store.ToggleLike(r.Context(), videoID, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			WriteMessage(w, http.StatusNotFound, "Video not found")
			return
		}
		h.internalError(w, r, "toggle like", err)
		return
	}
	if liked {
		metrics.ObserveEngagement("like")
	} else {
		metrics.ObserveEngagement("unlike")
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"liked":     liked,
		"likeCount": count,
	})
}

func (h *Handler) videoComments(w http.ResponseWriter, r *http.Request, videoID, userID string) {
	switch r.Method {
	case http.MethodGet:
		comments, err := h.Store.ListComments(r.Context(), videoID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				WriteMessage(w, http.StatusNotFound, "Video not found")
				return
			}
			h.internalError(w, r, "list comments", err)
			return
		}
		writeJSON(w, http.StatusOK, comments)
	case http.MethodPost:
		var req commentRequest
		if err := decodeJSON(r, &req); err != nil {
			WriteMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}
		text := strings.TrimSpace(req.Text)
		if text == "" {
			WriteMessage(w, http.StatusBadRequest, "Comment text is required")
			return
		}
		comment, err := h.Store.CreateComment(r.Context(), videoID, userID, text)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				WriteMessage(w, http.StatusNotFound, "Video not found")
				return
			}
			h.internalError(w, r, "create comment", err)
			return
		}
		metrics.ObserveEngagement("comment")
		writeJSON(w, http.StatusOK, comment)
	default:
		WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
