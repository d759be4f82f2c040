// Package payload shapes product create and update requests into the values
// persisted by the product service and sent by the gateway client.
package payload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// Multipart field names
const (
	FieldName             = "name"
	FieldDescription      = "description"
	FieldBrand            = "brand"
	FieldCategory         = "category"
	FieldPrice            = "price"
	FieldPromotionalPrice = "promotional_price"
	FieldStock            = "stock"
	FieldActive           = "is_active"
	FieldFeatured         = "featured"
	FieldStoreIDs         = "store_ids"
	FieldImages           = "images"
	FieldDeleteImageIDs   = "delete_image_ids"
)

// ErrInvalidPayload matches every validation failure of this package
var ErrInvalidPayload = errors.New("invalid product payload")

// ValidationError names the offending form field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is lets callers test with errors.Is(err, ErrInvalidPayload)
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidPayload
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ProductFields are the scalar columns of a product
type ProductFields struct {
	Name             string
	Description      string
	Brand            string
	Category         string
	Price            decimal.Decimal
	PromotionalPrice decimal.NullDecimal
	Stock            int
	Active           bool
	Featured         bool
}

// Apply copies the fields onto a product row
func (f ProductFields) Apply(p *model.Product) {
	p.Name = f.Name
	p.Description = f.Description
	p.Brand = f.Brand
	p.Category = f.Category
	p.Price = f.Price
	p.PromotionalPrice = f.PromotionalPrice
	p.Stock = f.Stock
	p.IsActive = f.Active
	p.Featured = f.Featured
}

// FieldsFromProduct extracts the scalar fields of an existing product
func FieldsFromProduct(p model.Product) ProductFields {
	return ProductFields{
		Name:             p.Name,
		Description:      p.Description,
		Brand:            p.Brand,
		Category:         p.Category,
		Price:            p.Price,
		PromotionalPrice: p.PromotionalPrice,
		Stock:            p.Stock,
		Active:           p.IsActive,
		Featured:         p.Featured,
	}
}

func (f ProductFields) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return invalid(FieldName, "is required")
	}
	if len(f.Name) > 255 {
		return invalid(FieldName, "must be at most 255 characters")
	}
	if f.Price.IsNegative() {
		return invalid(FieldPrice, "must not be negative")
	}
	if f.PromotionalPrice.Valid {
		if f.PromotionalPrice.Decimal.IsNegative() {
			return invalid(FieldPromotionalPrice, "must not be negative")
		}
		if f.PromotionalPrice.Decimal.GreaterThan(f.Price) {
			return invalid(FieldPromotionalPrice, "must not exceed the price")
		}
	}
	if f.Stock < 0 {
		return invalid(FieldStock, "must not be negative")
	}
	return nil
}

// ProductInsertPayload carries everything needed to create a product. Store
// ids are kept as given, duplicates included.
type ProductInsertPayload struct {
	Fields   ProductFields
	StoreIDs []uint
	Images   []ImageFile
}

// Validate checks the scalar fields and the image attachments. An empty store
// list and an empty image list are both legal.
func (p *ProductInsertPayload) Validate() error {
	if err := p.Fields.validate(); err != nil {
		return err
	}
	for _, img := range p.Images {
		if err := validateImage(img); err != nil {
			return err
		}
	}
	return nil
}

// WriteMultipart encodes the payload as a multipart form
func (p *ProductInsertPayload) WriteMultipart(w *multipart.Writer) error {
	if err := writeFields(w, p.Fields, p.StoreIDs); err != nil {
		return err
	}
	return writeImages(w, p.Images)
}

// ProductUpdatePayload carries a full replacement of a product's fields and
// stores, new images, and the ids of existing images to drop.
type ProductUpdatePayload struct {
	Fields         ProductFields
	StoreIDs       []uint
	NewImages      []ImageFile
	DeleteImageIDs []uint
	ExistingImages []model.ProductImage
}

// Validate checks fields, new images, and that every deleted id belongs to
// the existing image set.
func (p *ProductUpdatePayload) Validate() error {
	if err := p.Fields.validate(); err != nil {
		return err
	}
	for _, img := range p.NewImages {
		if err := validateImage(img); err != nil {
			return err
		}
	}

	existing := make(map[uint]bool, len(p.ExistingImages))
	for _, img := range p.ExistingImages {
		existing[img.ID] = true
	}
	for _, id := range p.DeleteImageIDs {
		if !existing[id] {
			return invalid(FieldDeleteImageIDs, "image %d does not belong to the product", id)
		}
	}
	return nil
}

// RemovedImages returns the existing images selected for deletion
func (p *ProductUpdatePayload) RemovedImages() []model.ProductImage {
	deleted := p.deleteSet()
	var removed []model.ProductImage
	for _, img := range p.ExistingImages {
		if deleted[img.ID] {
			removed = append(removed, img)
		}
	}
	return removed
}

// FinalImages returns (existing - deleted) followed by the uploaded images in
// upload order, with positions renumbered from zero.
func (p *ProductUpdatePayload) FinalImages(uploaded []model.ProductImage) []model.ProductImage {
	deleted := p.deleteSet()
	final := make([]model.ProductImage, 0, len(p.ExistingImages)+len(uploaded))
	for _, img := range p.ExistingImages {
		if !deleted[img.ID] {
			final = append(final, img)
		}
	}
	final = append(final, uploaded...)
	for i := range final {
		final[i].Position = i
	}
	return final
}

func (p *ProductUpdatePayload) deleteSet() map[uint]bool {
	deleted := make(map[uint]bool, len(p.DeleteImageIDs))
	for _, id := range p.DeleteImageIDs {
		deleted[id] = true
	}
	return deleted
}

// WriteMultipart encodes the payload as a multipart form
func (p *ProductUpdatePayload) WriteMultipart(w *multipart.Writer) error {
	if err := writeFields(w, p.Fields, p.StoreIDs); err != nil {
		return err
	}
	for _, id := range p.DeleteImageIDs {
		if err := w.WriteField(FieldDeleteImageIDs, strconv.FormatUint(uint64(id), 10)); err != nil {
			return err
		}
	}
	return writeImages(w, p.NewImages)
}

// ParseInsert builds an insert payload from a parsed multipart form
func ParseInsert(form *multipart.Form) (*ProductInsertPayload, error) {
	fields, err := parseFields(form.Value)
	if err != nil {
		return nil, err
	}
	storeIDs, err := parseIDs(form.Value[FieldStoreIDs], FieldStoreIDs)
	if err != nil {
		return nil, err
	}

	p := &ProductInsertPayload{
		Fields:   fields,
		StoreIDs: storeIDs,
		Images:   parseImages(form.File[FieldImages]),
	}
	return p, p.Validate()
}

// ParseUpdate builds an update payload from a parsed multipart form and the
// product's current images.
func ParseUpdate(form *multipart.Form, existing []model.ProductImage) (*ProductUpdatePayload, error) {
	fields, err := parseFields(form.Value)
	if err != nil {
		return nil, err
	}
	storeIDs, err := parseIDs(form.Value[FieldStoreIDs], FieldStoreIDs)
	if err != nil {
		return nil, err
	}
	deleteIDs, err := parseIDs(form.Value[FieldDeleteImageIDs], FieldDeleteImageIDs)
	if err != nil {
		return nil, err
	}

	p := &ProductUpdatePayload{
		Fields:         fields,
		StoreIDs:       storeIDs,
		NewImages:      parseImages(form.File[FieldImages]),
		DeleteImageIDs: deleteIDs,
		ExistingImages: existing,
	}
	return p, p.Validate()
}

func parseFields(values map[string][]string) (ProductFields, error) {
	get := func(key string) string {
		if v := values[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	fields := ProductFields{
		Name:        get(FieldName),
		Description: get(FieldDescription),
		Brand:       get(FieldBrand),
		Category:    get(FieldCategory),
		Active:      true,
	}

	price, err := parseMoney(get(FieldPrice))
	if err != nil {
		return fields, invalid(FieldPrice, "%v", err)
	}
	fields.Price = price

	if raw := get(FieldPromotionalPrice); raw != "" {
		promo, err := parseMoney(raw)
		if err != nil {
			return fields, invalid(FieldPromotionalPrice, "%v", err)
		}
		fields.PromotionalPrice = decimal.NewNullDecimal(promo)
	}

	if raw := get(FieldStock); raw != "" {
		stock, err := cast.ToIntE(raw)
		if err != nil {
			return fields, invalid(FieldStock, "must be an integer")
		}
		fields.Stock = stock
	}

	if raw := get(FieldActive); raw != "" {
		active, err := parseFlag(raw)
		if err != nil {
			return fields, invalid(FieldActive, "must be a boolean")
		}
		fields.Active = active
	}

	if raw := get(FieldFeatured); raw != "" {
		featured, err := parseFlag(raw)
		if err != nil {
			return fields, invalid(FieldFeatured, "must be a boolean")
		}
		fields.Featured = featured
	}

	return fields, nil
}

// parseMoney accepts both "1999.90" and "1999,90"
func parseMoney(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, errors.New("is required")
	}
	if strings.Contains(raw, ",") && !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, errors.New("must be a number")
	}
	return value.Round(2), nil
}

func parseFlag(raw string) (bool, error) {
	if strings.EqualFold(raw, "on") {
		return true, nil
	}
	return cast.ToBoolE(raw)
}

func parseIDs(raw []string, field string) ([]uint, error) {
	var ids []uint
	for _, entry := range raw {
		// Accept both repeated fields and comma separated lists
		for _, part := range strings.Split(entry, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseUint(part, 10, 64)
			if err != nil || id == 0 {
				return nil, invalid(field, "%q is not a valid id", part)
			}
			ids = append(ids, uint(id))
		}
	}
	return ids, nil
}

func parseImages(headers []*multipart.FileHeader) []ImageFile {
	images := make([]ImageFile, 0, len(headers))
	for _, fh := range headers {
		images = append(images, FromFileHeader(fh))
	}
	return images
}

func writeFields(w *multipart.Writer, f ProductFields, storeIDs []uint) error {
	values := [][2]string{
		{FieldName, f.Name},
		{FieldDescription, f.Description},
		{FieldBrand, f.Brand},
		{FieldCategory, f.Category},
		{FieldPrice, f.Price.StringFixed(2)},
		{FieldStock, strconv.Itoa(f.Stock)},
		{FieldActive, strconv.FormatBool(f.Active)},
		{FieldFeatured, strconv.FormatBool(f.Featured)},
	}
	if f.PromotionalPrice.Valid {
		values = append(values, [2]string{FieldPromotionalPrice, f.PromotionalPrice.Decimal.StringFixed(2)})
	}
	for _, id := range storeIDs {
		values = append(values, [2]string{FieldStoreIDs, strconv.FormatUint(uint64(id), 10)})
	}

	for _, kv := range values {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeImages(w *multipart.Writer, images []ImageFile) error {
	for _, img := range images {
		if err := writeImage(w, img); err != nil {
			return fmt.Errorf("attach %s: %w", img.Filename, err)
		}
	}
	return nil
}

func writeImage(w *multipart.Writer, img ImageFile) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FieldImages, quoteEscaper.Replace(img.Filename)))
	contentType := img.MediaType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}

	src, err := img.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	_, err = io.Copy(part, src)
	return err
}
