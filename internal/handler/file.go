package handler

import (
	"log/slog"
	"net/http"

	"filehaven/internal/domain/services"
	"filehaven/internal/httputil"
)

// maxUploadBytes caps a single upload request body. Per-plan limits are
// enforced by the file service; this is only the transport guard.
const maxUploadBytes = 5 << 30

// FileHandler handles file HTTP requests
type FileHandler struct {
	files   services.FileService
	mutator services.TreeMutator
	logger  *slog.Logger
}

// NewFileHandler creates a new file handler
func NewFileHandler(files services.FileService, mutator services.TreeMutator, logger *slog.Logger) *FileHandler {
	return &FileHandler{
		files:   files,
		mutator: mutator,
		logger:  logger,
	}
}

// Upload stores a file from a multipart form. Fields: "file" (content),
// "folder_path" (optional, find-or-create), "name" (optional override).
// POST /api/files
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	content, header, err := r.FormFile("file")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer content.Close()

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	file, err := h.files.Upload(r.Context(), &services.UploadRequest{
		OwnerID:    userID,
		FolderPath: r.FormValue("folder_path"),
		Name:       name,
		MimeType:   header.Header.Get("Content-Type"),
		SizeBytes:  header.Size,
		PlanID:     r.FormValue("plan_id"),
		Content:    content,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, file)
}

// GetFile returns a file's metadata
// GET /api/files/{id}
func (h *FileHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	file, err := h.files.GetFile(r.Context(), userID, fileID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

type updateFileRequest struct {
	// FolderID uses PATCH tri-state semantics: absent leaves the file in
	// place, null moves it to the root, a value moves it to that folder.
	FolderID httputil.OptionalString `json:"folder_id"`
	Starred  *bool                   `json:"starred"`
}

// UpdateFile moves and/or stars a file
// PATCH /api/files/{id}
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	var req updateFileRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.FolderID.Present && req.Starred == nil {
		httputil.RespondError(w, http.StatusBadRequest, "at least one field must be provided")
		return
	}

	if req.FolderID.Present {
		target := req.FolderID.Value
		if target != nil {
			var valid bool
			if target, valid = nullableID(w, *target); !valid {
				return
			}
		}
		if _, err := h.files.MoveFile(r.Context(), &services.MoveFileRequest{
			OwnerID:  userID,
			FileID:   fileID,
			FolderID: target,
		}); err != nil {
			handleError(w, h.logger, err)
			return
		}
	}

	if req.Starred != nil {
		if err := h.files.SetStarred(r.Context(), userID, fileID, *req.Starred); err != nil {
			handleError(w, h.logger, err)
			return
		}
	}

	file, err := h.files.GetFile(r.Context(), userID, fileID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

// SoftDeleteFile moves a file to the trash
// DELETE /api/files/{id}
func (h *FileHandler) SoftDeleteFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	if err := h.mutator.SoftDeleteFile(r.Context(), userID, fileID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RestoreFile brings a trashed file back
// POST /api/files/{id}/restore
func (h *FileHandler) RestoreFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	if err := h.mutator.RestoreFile(r.Context(), userID, fileID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PurgeFile permanently deletes a trashed file
// DELETE /api/files/{id}/purge
func (h *FileHandler) PurgeFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	if err := h.mutator.PurgeFile(r.Context(), userID, fileID); err != nil {
		handleError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListVersions returns a file's version history, newest first
// GET /api/files/{id}/versions
func (h *FileHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	versions, err := h.files.ListVersions(r.Context(), userID, fileID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, versions)
}

// RestoreVersion makes an older version the file's current content
// POST /api/files/{id}/versions/{versionId}/restore
func (h *FileHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}
	versionID, ok := requireID(w, r, "versionId")
	if !ok {
		return
	}

	file, err := h.files.RestoreVersion(r.Context(), userID, fileID, versionID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, file)
}

type downloadResponse struct {
	URL string `json:"url"`
}

// Download returns a signed, time-limited URL for the file's content
// GET /api/files/{id}/download
func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	fileID, ok := requireID(w, r, "id")
	if !ok {
		return
	}

	url, err := h.files.DownloadURL(r.Context(), userID, fileID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, downloadResponse{URL: url})
}

// Usage reports the caller's storage consumption against their plan
// GET /api/usage
func (h *FileHandler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	usage, err := h.files.Usage(r.Context(), userID, r.URL.Query().Get("plan_id"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, usage)
}
