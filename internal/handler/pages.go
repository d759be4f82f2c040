package handler

import (
	"github.com/labstack/echo/v4"
)

// PageHandler serves the storefront single-page app for gated page routes
type PageHandler struct {
	indexFile string
}

// NewPageHandler creates a page handler serving the given index file
func NewPageHandler(indexFile string) *PageHandler {
	return &PageHandler{indexFile: indexFile}
}

// Index renders the app shell; the route gate has already decided access
func (h *PageHandler) Index(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	return c.File(h.indexFile)
}
