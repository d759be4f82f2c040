package handler

import (
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/service"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/session"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// StoreHandler serves the store directory
type StoreHandler struct {
	stores *service.StoreService
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(stores *service.StoreService) *StoreHandler {
	return &StoreHandler{stores: stores}
}

// List returns active stores; employees also see inactive ones
func (h *StoreHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	activeOnly := true
	if sess, err := session.FromContext(c); err == nil && sess.IsEmployee() {
		activeOnly = false
	}

	stores, err := h.stores.List(c.Request().Context(), activeOnly)
	if err != nil {
		return respondError(c, log, err, "list stores")
	}
	return c.JSON(http.StatusOK, stores)
}

// Get returns one store
func (h *StoreHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, log, err, "get store")
	}
	store, err := h.stores.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, err, "get store")
	}
	return c.JSON(http.StatusOK, store)
}

// Create handles creating a store
func (h *StoreHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req model.StoreInsert
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	store, err := h.stores.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, log, err, "create store")
	}

	prometheus.RecordStoreOperation("create")
	log.Info("Store created", zap.Uint("store_id", store.ID), zap.String("name", store.Name))
	return c.JSON(http.StatusCreated, store)
}

// Update handles a partial store update
func (h *StoreHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, log, err, "update store")
	}
	var req model.StoreUpdate
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	store, err := h.stores.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, log, err, "update store")
	}

	prometheus.RecordStoreOperation("update")
	log.Info("Store updated", zap.Uint("store_id", store.ID))
	return c.JSON(http.StatusOK, store)
}

// Delete handles removing a store
func (h *StoreHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, log, err, "delete store")
	}
	if err := h.stores.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, log, err, "delete store")
	}

	prometheus.RecordStoreOperation("delete")
	log.Info("Store deleted", zap.Uint("store_id", id))
	return c.NoContent(http.StatusNoContent)
}
