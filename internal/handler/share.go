package handler

import (
	"log/slog"
	"net/http"

	"filehaven/internal/domain/models"
	"filehaven/internal/domain/services"
	"filehaven/internal/httputil"
)

// ShareHandler handles sharing HTTP requests
type ShareHandler struct {
	shares services.ShareService
	files  services.FileService
	logger *slog.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shares services.ShareService, files services.FileService, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{
		shares: shares,
		files:  files,
		logger: logger,
	}
}

type grantPermissionRequest struct {
	SharedWith     string `json:"shared_with"`
	PermissionType string `json:"permission_type"`
}

// GrantPermission shares a file with another user
// POST /api/files/{id}/permissions
func (h *ShareHandler) GrantPermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	var req grantPermissionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	perm, err := h.shares.GrantPermission(r.Context(), &services.GrantPermissionRequest{
		OwnerID:        userID,
		FileID:         fileID,
		SharedWith:     req.SharedWith,
		PermissionType: models.PermissionType(req.PermissionType),
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, perm)
}

// RevokePermission removes a user's access to a file
// DELETE /api/files/{id}/permissions/{userId}
func (h *ShareHandler) RevokePermission(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}
	granteeID, ok := requireID(w, r, "userId")
	if !ok {
		return
	}

	if err := h.shares.RevokePermission(r.Context(), userID, fileID, granteeID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListSharedWithMe returns the files shared with the caller
// GET /api/shared-with-me
func (h *ShareHandler) ListSharedWithMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	shared, err := h.shares.ListSharedWithMe(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, shared)
}

type createShareLinkRequest struct {
	PermissionType string `json:"permission_type"`
	ExpiresInHours int    `json:"expires_in_hours"`
}

// CreateShareLink creates a tokenized link to a file
// POST /api/files/{id}/links
func (h *ShareHandler) CreateShareLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	var req createShareLinkRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.shares.CreateShareLink(r.Context(), &services.CreateShareLinkRequest{
		OwnerID:        userID,
		FileID:         fileID,
		PermissionType: models.PermissionType(req.PermissionType),
		ExpiresInHours: req.ExpiresInHours,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, link)
}

// RevokeShareLink deactivates a share link
// DELETE /api/files/{id}/links/{token}
func (h *ShareHandler) RevokeShareLink(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	if err := h.shares.RevokeShareLink(r.Context(), userID, fileID, r.PathValue("token")); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type linkDownloadResponse struct {
	File *models.File `json:"file"`
	URL  string       `json:"url"`
}

// ResolveShareLink resolves a public link token to the target file and a
// signed download URL. Unauthenticated: the token is the credential.
// GET /api/public/links/{token}
func (h *ShareHandler) ResolveShareLink(w http.ResponseWriter, r *http.Request) {
	file, url, err := h.files.LinkDownloadURL(r.Context(), r.PathValue("token"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, linkDownloadResponse{File: file, URL: url})
}
