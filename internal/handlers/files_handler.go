package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/NeelODE/drive/internal/config"
	"github.com/NeelODE/drive/internal/models"
	"github.com/NeelODE/drive/internal/services"
	"github.com/NeelODE/drive/internal/utils"
)

// FilesHandler serves the /api file operations against one storage backend
type FilesHandler struct {
	store           services.Storage
	maxTextViewSize int64
}

func NewFilesHandler(store services.Storage, cfg *config.Config) *FilesHandler {
	maxText := cfg.Server.MaxTextViewSize
	if maxText <= 0 {
		maxText = config.DefaultMaxTextViewSize
	}
	return &FilesHandler{
		store:           store,
		maxTextViewSize: maxText,
	}
}

func invalidDirectory() error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid directory")
}

func invalidPath() error {
	return echo.NewHTTPError(http.StatusBadRequest, "Invalid path")
}

// List returns one directory level, folders first
func (h *FilesHandler) List(c echo.Context) error {
	dir, err := utils.SanitizePath(c.QueryParam("dir"))
	if err != nil {
		return invalidDirectory()
	}

	files, err := h.store.List(c.Request().Context(), dir)
	switch {
	case errors.Is(err, services.ErrInvalidPath):
		return invalidDirectory()
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Directory not found")
	case err != nil:
		return apiError(err, "list directory")
	}

	return c.JSON(http.StatusOK, models.ListResponse{
		Success:    true,
		Files:      files,
		CurrentDir: dir,
	})
}

// Upload stores a single multipart file in dir. Existing names are never overwritten.
func (h *FilesHandler) Upload(c echo.Context) error {
	dir, err := utils.SanitizePath(c.FormValue("dir"))
	if err != nil {
		return invalidDirectory()
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No file uploaded")
	}
	name, err := utils.SanitizeName(file.Filename)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid file name")
	}

	src, err := file.Open()
	if err != nil {
		return apiError(err, "read upload")
	}
	defer func() { _ = src.Close() }()

	err = h.store.Upload(c.Request().Context(), dir, name, src, file.Size)
	switch {
	case errors.Is(err, services.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("File '%s' already exists", name))
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Directory not found")
	case errors.Is(err, services.ErrInvalidPath):
		return invalidDirectory()
	case err != nil:
		return apiError(err, "upload file")
	}

	return c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: fmt.Sprintf("File '%s' uploaded successfully", name),
	})
}

// CreateFolder creates folder_name inside dir
func (h *FilesHandler) CreateFolder(c echo.Context) error {
	var req models.CreateFolderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.FolderName) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Folder name is required")
	}

	dir, err := utils.SanitizePath(req.Dir)
	if err != nil {
		return invalidDirectory()
	}
	name, err := utils.SanitizeName(req.FolderName)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid folder name")
	}

	err = h.store.CreateFolder(c.Request().Context(), dir, name)
	switch {
	case errors.Is(err, services.ErrAlreadyExists):
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Folder '%s' already exists", name))
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Directory not found")
	case errors.Is(err, services.ErrInvalidPath):
		return invalidDirectory()
	case err != nil:
		return apiError(err, "create folder")
	}

	return c.JSON(http.StatusCreated, models.Response{
		Success: true,
		Message: fmt.Sprintf("Folder '%s' created successfully", name),
	})
}

// View returns text content inline. Images, audio, video and PDFs get a URL
// the browser can load directly.
func (h *FilesHandler) View(c echo.Context) error {
	p, err := utils.SanitizePath(c.QueryParam("path"))
	if err != nil || p == "" {
		return invalidPath()
	}

	ctx := c.Request().Context()
	entry, err := h.store.Stat(ctx, p)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	case err != nil:
		return apiError(err, "read file")
	}
	if entry.IsDirectory {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot preview a folder")
	}

	filename := utils.BaseName(p)
	contentType := utils.ContentTypeFromExt(filename)
	kind := utils.ViewKind(contentType)
	if kind == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Preview is not available for this file type")
	}
	resp := models.ViewResponse{
		Success:  true,
		Filename: filename,
		MimeType: contentType,
		ViewType: kind,
	}

	if kind != utils.ViewText {
		resp.IsImage = kind == utils.ViewImage
		resp.Content = entry.AccessURL
		if resp.Content == "" {
			resp.Content = "/api/download?path=" + url.QueryEscape(p) + "&inline=1"
		}
		return c.JSON(http.StatusOK, resp)
	}

	if entry.Size > h.maxTextViewSize {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(
			"File is too large to preview (over %s). Download it instead.", utils.FormatBytes(h.maxTextViewSize)))
	}
	rc, _, err := h.store.Open(ctx, p)
	if err != nil {
		return apiError(err, "read file")
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(io.LimitReader(rc, h.maxTextViewSize))
	if err != nil {
		return apiError(err, "read file")
	}
	resp.IsText = true
	resp.Content = utils.DecodeText(data)
	return c.JSON(http.StatusOK, resp)
}

// Download streams a file, or a folder as a zip archive
func (h *FilesHandler) Download(c echo.Context) error {
	p, err := utils.SanitizePath(c.QueryParam("path"))
	if err != nil {
		return invalidPath()
	}

	ctx := c.Request().Context()
	entry, err := h.store.Stat(ctx, p)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	case err != nil:
		return apiError(err, "download")
	}

	if entry.IsDirectory {
		return h.downloadZip(c, p)
	}

	rc, info, err := h.store.Open(ctx, p)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "File not found")
	case err != nil:
		return apiError(err, "download")
	}
	defer func() { _ = rc.Close() }()

	filename := utils.BaseName(p)
	contentType := utils.ContentTypeFromExt(filename)
	disposition := "attachment"
	if c.QueryParam("inline") == "1" && utils.IsInlineType(contentType) {
		disposition = "inline"
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, contentDisposition(disposition, filename))
	header.Set(echo.HeaderContentLength, strconv.FormatInt(info.Size, 10))
	return c.Stream(http.StatusOK, contentType, rc)
}

func (h *FilesHandler) downloadZip(c echo.Context, dir string) error {
	zipName := "files.zip"
	if dir != "" {
		zipName = utils.BaseName(dir) + ".zip"
	}

	c.Response().Header().Set(echo.HeaderContentType, "application/zip")
	c.Response().Header().Set(echo.HeaderContentDisposition, contentDisposition("attachment", zipName))
	c.Response().WriteHeader(http.StatusOK)

	if err := h.store.Archive(c.Request().Context(), dir, c.Response()); err != nil {
		// Headers are gone; the client sees a truncated archive.
		log.Printf("ERROR: zip download of %q: %v", dir, err)
	}
	return nil
}

func contentDisposition(disposition, filename string) string {
	if v := mime.FormatMediaType(disposition, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return disposition
}

// Delete removes every listed path, counting failures instead of aborting
func (h *FilesHandler) Delete(c echo.Context) error {
	var req models.DeleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if len(req.Paths) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No paths provided")
	}

	result := services.DeletePaths(c.Request().Context(), h.store, req.Paths)

	message := fmt.Sprintf("Deleted %d item(s)", result.Succeeded)
	if result.Failed > 0 {
		message += fmt.Sprintf(", %d failed", result.Failed)
	}
	return c.JSON(http.StatusOK, models.DeleteResponse{
		Success: true,
		Message: message,
		Deleted: result.Succeeded,
		Failed:  result.Failed,
	})
}

// Paste copies or moves sourcePaths into destDir, renaming on collision
func (h *FilesHandler) Paste(c echo.Context) error {
	var req models.PasteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if len(req.SourcePaths) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No source paths provided")
	}
	op, err := services.ParseOperation(req.Operation)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid paste operation")
	}
	destDir, err := utils.SanitizePath(req.DestDir)
	if err != nil {
		return invalidDirectory()
	}

	result, err := services.Paste(c.Request().Context(), h.store, req.SourcePaths, destDir, op)
	switch {
	case errors.Is(err, services.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Destination directory not found")
	case errors.Is(err, services.ErrInvalidPath):
		return invalidDirectory()
	case err != nil:
		return apiError(err, "paste")
	}

	verb := "Copied"
	if op == services.OperationCut {
		verb = "Moved"
	}
	message := fmt.Sprintf("%s %d item(s)", verb, result.Succeeded)
	if result.Failed > 0 {
		message += fmt.Sprintf(", %d failed", result.Failed)
	}
	return c.JSON(http.StatusOK, models.PasteResponse{
		Success: true,
		Message: message,
		Pasted:  result.Succeeded,
		Failed:  result.Failed,
	})
}
