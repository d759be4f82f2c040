package handler

import (
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/payload"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/service"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ProductList is the body of GET /api/products
type ProductList struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// ProductHandler serves the product catalog
type ProductHandler struct {
	products *service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// List handles retrieving products with the query string filters
func (h *ProductHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	filter, err := service.ParseProductFilter(c.QueryParams())
	if err != nil {
		log.Warn("Invalid product filter", zap.String("query", c.QueryString()), zap.Error(err))
		return respondError(c, log, err, "list products")
	}

	products, total, err := h.products.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, log, err, "list products")
	}

	log.Debug("Products retrieved", zap.Int("count", len(products)), zap.Int64("total", total))
	return c.JSON(http.StatusOK, ProductList{
		Products: products,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// Get handles retrieving a single product by ID
func (h *ProductHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, log, err, "get product")
	}

	product, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, err, "get product")
	}
	return c.JSON(http.StatusOK, product)
}

// Create handles a multipart product creation with its images
func (h *ProductHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn("Product creation without multipart body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart/form-data body required"})
	}
	defer form.RemoveAll()

	p, err := payload.ParseInsert(form)
	if err != nil {
		log.Warn("Invalid product payload", zap.Error(err))
		return respondError(c, log, err, "create product")
	}

	product, err := h.products.Create(c.Request().Context(), p)
	if err != nil {
		return respondError(c, log, err, "create product")
	}

	prometheus.RecordProductOperation("create")
	log.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.String("name", product.Name),
		zap.Int("stores", len(product.Stores)),
		zap.Int("images", len(product.Images)))
	return c.JSON(http.StatusCreated, product)
}

// Update handles a multipart product update. Images listed in
// delete_image_ids must belong to the product.
func (h *ProductHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, log, err, "update product")
	}

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn("Product update without multipart body", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart/form-data body required"})
	}
	defer form.RemoveAll()

	current, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, err, "update product")
	}

	p, err := payload.ParseUpdate(form, current.Images)
	if err != nil {
		log.Warn("Invalid product payload", zap.Uint("product_id", id), zap.Error(err))
		return respondError(c, log, err, "update product")
	}

	product, err := h.products.Update(c.Request().Context(), id, p)
	if err != nil {
		return respondError(c, log, err, "update product")
	}

	prometheus.RecordProductOperation("update")
	log.Info("Product updated",
		zap.Uint("product_id", product.ID),
		zap.Int("new_images", len(p.NewImages)),
		zap.Int("deleted_images", len(p.DeleteImageIDs)))
	return c.JSON(http.StatusOK, product)
}

// Delete handles removing a product
func (h *ProductHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c)
	if err != nil {
		return respondError(c, log, err, "delete product")
	}

	if err := h.products.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, log, err, "delete product")
	}

	prometheus.RecordProductOperation("delete")
	log.Info("Product deleted", zap.Uint("product_id", id))
	return c.NoContent(http.StatusNoContent)
}
