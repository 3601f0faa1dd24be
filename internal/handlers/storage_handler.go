package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/NeelODE/drive/internal/models"
	"github.com/NeelODE/drive/internal/services"
)

type StorageHandler struct {
	store services.Storage
}

func NewStorageHandler(store services.Storage) *StorageHandler {
	return &StorageHandler{store: store}
}

// Usage reports how much data the backend holds
func (h *StorageHandler) Usage(c echo.Context) error {
	usage, err := h.store.Usage(c.Request().Context())
	if err != nil {
		return apiError(err, "compute usage")
	}
	return c.JSON(http.StatusOK, models.UsageResponse{Success: true, Usage: usage})
}
