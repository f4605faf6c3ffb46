package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l5x-extractor/backend/internal/models"
	"github.com/l5x-extractor/backend/internal/session"
	"github.com/l5x-extractor/backend/internal/storage"
)

// Handler handles API requests.
type Handler struct {
	store storage.Store
	runs  *session.Manager
}

// NewHandler creates a new API handler.
func NewHandler(store storage.Store, runs *session.Manager) *Handler {
	return &Handler{
		store: store,
		runs:  runs,
	}
}

// HandleUploadFile accepts an L5X document as a multipart upload.
func (h *Handler) HandleUploadFile(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("multipart field 'file' is required", err)
	}

	src, err := file.Open()
	if err != nil {
		return NewBadRequestError("cannot open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(file.Filename, src)
	if err != nil {
		return NewBadRequestError("failed to save file", err)
	}

	return c.JSON(http.StatusCreated, info)
}

// HandleRecentFiles returns a list of recently uploaded documents.
func (h *Handler) HandleRecentFiles(c echo.Context) error {
	files, err := h.store.List(20)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	if files == nil {
		files = []*models.FileInfo{}
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFile returns metadata for a specific document.
func (h *Handler) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	info, err := h.store.Get(id)
	if err != nil {
		return NewNotFoundError("file", id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleDeleteFile removes a document from storage.
func (h *Handler) HandleDeleteFile(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.Delete(id); err != nil {
		return NewNotFoundError("file", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleRenameFile updates the display name of a document.
func (h *Handler) HandleRenameFile(c echo.Context) error {
	id := c.Param("id")
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.Name == "" {
		return NewValidationError("name")
	}

	info, err := h.store.Rename(id, req.Name)
	if err != nil {
		return NewNotFoundError("file", id)
	}
	return c.JSON(http.StatusOK, info)
}

// HandleStartRun starts an extraction run over a stored document.
func (h *Handler) HandleStartRun(c echo.Context) error {
	var req struct {
		FileID string `json:"fileId"`
	}
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.FileID == "" {
		return NewValidationError("fileId")
	}

	info, err := h.store.Get(req.FileID)
	if err != nil {
		return NewNotFoundError("file", req.FileID)
	}
	path, err := h.store.GetFilePath(req.FileID)
	if err != nil {
		return NewInternalError("failed to resolve file path", err)
	}

	run, err := h.runs.StartRun(info.ID, path, info.Name)
	if err != nil {
		return NewInternalError("failed to start extraction", err)
	}

	h.store.UpdateStatus(info.ID, "extracting")

	return c.JSON(http.StatusAccepted, run)
}

// HandleRunStatus returns the status of an extraction run.
func (h *Handler) HandleRunStatus(c echo.Context) error {
	id := c.Param("runId")
	run, ok := h.runs.GetRun(id)
	if !ok {
		return NewNotFoundError("run", id)
	}
	// Keep the run alive while it is being watched.
	h.runs.TouchRun(id)
	return c.JSON(http.StatusOK, run)
}

// HandleRunBundle returns the merged extraction result as JSON.
func (h *Handler) HandleRunBundle(c echo.Context) error {
	id := c.Param("runId")
	result, ok := h.runs.GetResult(id)
	if !ok {
		return NewNotFoundError("run result", id)
	}
	h.runs.TouchRun(id)
	return c.JSON(http.StatusOK, result)
}

// HandleRunBundleMsgpack returns the merged extraction result in
// MessagePack for clients that fetch large bundles repeatedly.
func (h *Handler) HandleRunBundleMsgpack(c echo.Context) error {
	id := c.Param("runId")
	result, ok := h.runs.GetResult(id)
	if !ok {
		return NewNotFoundError("run result", id)
	}
	h.runs.TouchRun(id)

	data, err := msgpack.Marshal(result)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleListWorkbooks lists the rendered workbooks of a completed run.
func (h *Handler) HandleListWorkbooks(c echo.Context) error {
	id := c.Param("runId")
	outputs, ok := h.runs.ListWorkbooks(id)
	if !ok {
		return NewNotFoundError("run result", id)
	}
	if outputs == nil {
		outputs = []models.RoutineOutput{}
	}
	h.runs.TouchRun(id)
	return c.JSON(http.StatusOK, outputs)
}

// HandleDownloadWorkbook streams one rendered workbook. Filenames are
// resolved against the run's recorded outputs only.
func (h *Handler) HandleDownloadWorkbook(c echo.Context) error {
	id := c.Param("runId")
	name := c.Param("name")

	path, ok := h.runs.WorkbookPath(id, name)
	if !ok {
		return NewNotFoundError("workbook", name)
	}
	h.runs.TouchRun(id)
	return c.Attachment(path, name)
}
