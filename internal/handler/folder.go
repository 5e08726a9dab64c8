package handler

import (
	"log/slog"
	"net/http"

	"filehaven/internal/config"
	"filehaven/internal/domain/services"
	"filehaven/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	mutator  services.TreeMutator
	reader   services.TreeReader
	resolver services.PathResolver
	logger   *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(
	mutator services.TreeMutator,
	reader services.TreeReader,
	resolver services.PathResolver,
	logger *slog.Logger,
) *FolderHandler {
	return &FolderHandler{
		mutator:  mutator,
		reader:   reader,
		resolver: resolver,
		logger:   logger,
	}
}

// HealthCheck responds 200 when the server is up
// GET /health
func (h *FolderHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type createFolderRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}

// CreateFolder creates a folder under a parent. Idempotent: recreating an
// existing name returns the live folder.
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var parentID *string
	if req.ParentID != nil {
		var valid bool
		if parentID, valid = nullableID(w, *req.ParentID); !valid {
			return
		}
	}

	folder, err := h.mutator.CreateFolder(r.Context(), &services.CreateFolderRequest{
		OwnerID:  userID,
		ParentID: parentID,
		Name:     req.Name,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

type resolvePathRequest struct {
	Path string `json:"path"`
	// StartFolderID sets the folder the path is resolved under. Absent
	// and root sentinels mean the root level.
	StartFolderID *string `json:"start_folder_id"`
}

type resolvePathResponse struct {
	FolderID *string `json:"folder_id"`
}

// ResolvePath resolves a slash-separated path, creating missing folders
// POST /api/folders/resolve
func (h *FolderHandler) ResolvePath(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req resolvePathRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var startID *string
	if req.StartFolderID != nil {
		var valid bool
		if startID, valid = nullableID(w, *req.StartFolderID); !valid {
			return
		}
	}

	folderID, err := h.resolver.ResolveFolderPath(r.Context(), userID, req.Path, startID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, resolvePathResponse{FolderID: folderID})
}

type renameFolderRequest struct {
	Name string `json:"name"`
}

// RenameFolder renames a folder
// PATCH /api/folders/{id}
func (h *FolderHandler) RenameFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req renameFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folderID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	folder, err := h.mutator.RenameFolder(r.Context(), userID, folderID, req.Name)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, folder)
}

// SoftDeleteFolder moves a folder and its subtree to the trash
// DELETE /api/folders/{id}
func (h *FolderHandler) SoftDeleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	folderID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	if err := h.mutator.SoftDeleteFolder(r.Context(), userID, folderID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreFolder brings a trashed folder and its subtree back
// POST /api/folders/{id}/restore
func (h *FolderHandler) RestoreFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	folderID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	if err := h.mutator.RestoreFolder(r.Context(), userID, folderID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PurgeFolder permanently deletes a trashed folder and its subtree
// DELETE /api/folders/{id}/purge
func (h *FolderHandler) PurgeFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	folderID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	if err := h.mutator.PurgeFolder(r.Context(), userID, folderID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListRootChildren lists one page of the root level
// GET /api/folders
func (h *FolderHandler) ListRootChildren(w http.ResponseWriter, r *http.Request) {
	h.listChildren(w, r, nil)
}

// ListChildren lists one page of a folder's direct children
// GET /api/folders/{id}/children
func (h *FolderHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	folderID, ok := nullableID(w, r.PathValue("id"))
	if !ok {
		return
	}
	h.listChildren(w, r, folderID)
}

func (h *FolderHandler) listChildren(w http.ResponseWriter, r *http.Request, folderID *string) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(r, "page_size", config.DefaultPageSize)
	if pageSize < 1 {
		pageSize = config.DefaultPageSize
	}
	offset := (page - 1) * pageSize

	contents, err := h.reader.ListChildren(r.Context(), userID, folderID, offset, pageSize)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contents)
}

// Breadcrumbs returns the chain from the root to a folder
// GET /api/folders/{id}/breadcrumbs
func (h *FolderHandler) Breadcrumbs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	folderID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	crumbs, err := h.reader.GetBreadcrumbs(r.Context(), userID, folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, crumbs)
}

// ListTrash returns the flattened trash view under a folder context
// GET /api/trash?folder_id=...
func (h *FolderHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	folderID, ok := nullableID(w, r.URL.Query().Get("folder_id"))
	if !ok {
		return
	}

	contents, err := h.reader.ListTrash(r.Context(), userID, folderID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contents)
}
