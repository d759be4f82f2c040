package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/payload"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// likeEscaper makes wildcards typed in a search match literally
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// ImageStore keeps product image files
type ImageStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// ProductFilter narrows a product listing
type ProductFilter struct {
	Query    string
	Brand    string
	Category string
	StoreID  uint
	Active   *bool
	Featured *bool
	MinPrice decimal.NullDecimal
	MaxPrice decimal.NullDecimal
	Limit    int
	Offset   int
}

// ParseProductFilter reads a filter from query string values
func ParseProductFilter(values url.Values) (ProductFilter, error) {
	f := ProductFilter{
		Query:    strings.TrimSpace(values.Get("q")),
		Brand:    values.Get("brand"),
		Category: values.Get("category"),
		Limit:    defaultListLimit,
	}

	if raw := values.Get("store_id"); raw != "" {
		id, err := cast.ToUintE(raw)
		if err != nil {
			return f, fmt.Errorf("%w: store_id must be a number", ErrInvalidInput)
		}
		f.StoreID = id
	}
	if raw := values.Get("is_active"); raw != "" {
		active, err := cast.ToBoolE(raw)
		if err != nil {
			return f, fmt.Errorf("%w: is_active must be a boolean", ErrInvalidInput)
		}
		f.Active = &active
	}
	if raw := values.Get("featured"); raw != "" {
		featured, err := cast.ToBoolE(raw)
		if err != nil {
			return f, fmt.Errorf("%w: featured must be a boolean", ErrInvalidInput)
		}
		f.Featured = &featured
	}
	for key, dst := range map[string]*decimal.NullDecimal{"min_price": &f.MinPrice, "max_price": &f.MaxPrice} {
		if raw := values.Get(key); raw != "" {
			v, err := decimal.NewFromString(raw)
			if err != nil {
				return f, fmt.Errorf("%w: %s must be a number", ErrInvalidInput, key)
			}
			*dst = decimal.NewNullDecimal(v)
		}
	}
	if raw := values.Get("limit"); raw != "" {
		limit, err := cast.ToIntE(raw)
		if err != nil || limit < 1 {
			return f, fmt.Errorf("%w: limit must be a positive number", ErrInvalidInput)
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
		f.Limit = limit
	}
	if raw := values.Get("offset"); raw != "" {
		offset, err := cast.ToIntE(raw)
		if err != nil || offset < 0 {
			return f, fmt.Errorf("%w: offset must not be negative", ErrInvalidInput)
		}
		f.Offset = offset
	}
	return f, nil
}

// ProductService persists products, their store links and their images
type ProductService struct {
	db     *gorm.DB
	images ImageStore
	log    *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(db *gorm.DB, images ImageStore, log *zap.Logger) *ProductService {
	return &ProductService{db: db, images: images, log: log}
}

func withAssociations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Stores").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, id ASC")
		})
}

// List returns one page of products matching the filter and the total count
func (s *ProductService) List(ctx context.Context, f ProductFilter) ([]model.Product, int64, error) {
	defer prometheus.TrackDBOperation("product_list")(time.Now())

	query := s.db.WithContext(ctx).Model(&model.Product{})

	if f.Query != "" {
		like := "%" + likeEscaper.Replace(strings.ToLower(f.Query)) + "%"
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\'`, like, like)
	}
	if f.Brand != "" {
		query = query.Where("brand = ?", f.Brand)
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.StoreID != 0 {
		query = query.Where("id IN (?)",
			s.db.Table("product_stores").Select("product_id").Where("store_id = ?", f.StoreID))
	}
	if f.Active != nil {
		query = query.Where("is_active = ?", *f.Active)
	}
	if f.Featured != nil {
		query = query.Where("featured = ?", *f.Featured)
	}
	if f.MinPrice.Valid {
		query = query.Where("price >= ?", f.MinPrice.Decimal)
	}
	if f.MaxPrice.Valid {
		query = query.Where("price <= ?", f.MaxPrice.Decimal)
	}

	// Share the filtered statement between Count and Find
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var products []model.Product
	err := withAssociations(query).
		Order("featured DESC, created_at DESC, id DESC").
		Limit(limit).
		Offset(f.Offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// Get returns a product with its stores and images
func (s *ProductService) Get(ctx context.Context, id uint) (*model.Product, error) {
	return s.get(s.db.WithContext(ctx), id)
}

func (s *ProductService) get(db *gorm.DB, id uint) (*model.Product, error) {
	var product model.Product
	err := withAssociations(db).First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create stores a product, links its stores and uploads its images. Images
// already uploaded are not removed if a later step fails.
func (s *ProductService) Create(ctx context.Context, p *payload.ProductInsertPayload) (*model.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	defer prometheus.TrackDBOperation("product_create")(time.Now())

	var product model.Product
	p.Fields.Apply(&product)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&product).Error; err != nil {
			return fmt.Errorf("create product: %w", err)
		}
		if err := linkStores(tx, product.ID, p.StoreIDs); err != nil {
			return err
		}

		uploaded, err := s.upload(ctx, product.ID, p.Images)
		if err != nil {
			return err
		}
		for i := range uploaded {
			uploaded[i].Position = i
		}
		if len(uploaded) > 0 {
			if err := tx.Create(&uploaded).Error; err != nil {
				return fmt.Errorf("save product images: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, product.ID)
}

// Update replaces the product fields and store links, drops the images marked
// for deletion and appends the new ones.
func (s *ProductService) Update(ctx context.Context, id uint, p *payload.ProductUpdatePayload) (*model.Product, error) {
	defer prometheus.TrackDBOperation("product_update")(time.Now())

	var removed []model.ProductImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		product, err := s.get(tx, id)
		if err != nil {
			return err
		}

		// Diff against the images as stored now, not as the caller saw them
		p.ExistingImages = product.Images
		if err := p.Validate(); err != nil {
			return err
		}

		p.Fields.Apply(product)
		if err := tx.Omit(clause.Associations).Save(product).Error; err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		if err := tx.Where("product_id = ?", id).Delete(&model.ProductStore{}).Error; err != nil {
			return fmt.Errorf("clear store links: %w", err)
		}
		if err := linkStores(tx, id, p.StoreIDs); err != nil {
			return err
		}

		uploaded, err := s.upload(ctx, id, p.NewImages)
		if err != nil {
			return err
		}

		removed = p.RemovedImages()
		if len(removed) > 0 {
			ids := make([]uint, 0, len(removed))
			for _, img := range removed {
				ids = append(ids, img.ID)
			}
			if err := tx.Where("product_id = ? AND id IN ?", id, ids).Delete(&model.ProductImage{}).Error; err != nil {
				return fmt.Errorf("delete product images: %w", err)
			}
		}

		for _, img := range p.FinalImages(uploaded) {
			if img.ID == 0 {
				if err := tx.Create(&img).Error; err != nil {
					return fmt.Errorf("save product image: %w", err)
				}
				continue
			}
			if err := tx.Model(&model.ProductImage{}).Where("id = ?", img.ID).Update("position", img.Position).Error; err != nil {
				return fmt.Errorf("reorder product image: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, img := range removed {
		if err := s.images.Remove(ctx, img.ObjectKey); err != nil {
			s.log.Warn("Failed to remove product image from storage",
				zap.Uint("product_id", id),
				zap.String("object_key", img.ObjectKey),
				zap.Error(err))
		}
	}

	return s.Get(ctx, id)
}

// Delete soft-deletes a product. Its images stay in storage.
func (s *ProductService) Delete(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("product_delete")(time.Now())

	result := s.db.WithContext(ctx).Delete(&model.Product{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// linkStores inserts the associative rows. Repeated ids collapse on the
// table's primary key.
func linkStores(tx *gorm.DB, productID uint, storeIDs []uint) error {
	if len(storeIDs) == 0 {
		return nil
	}
	if err := checkStores(tx, storeIDs); err != nil {
		return err
	}
	links := make([]model.ProductStore, 0, len(storeIDs))
	for _, storeID := range storeIDs {
		links = append(links, model.ProductStore{ProductID: productID, StoreID: storeID})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error; err != nil {
		return fmt.Errorf("link stores: %w", err)
	}
	return nil
}

// checkStores fails with ErrInvalidInput when an id matches no live store
func checkStores(tx *gorm.DB, ids []uint) error {
	unique := make(map[uint]bool, len(ids))
	for _, id := range ids {
		unique[id] = true
	}

	var count int64
	if err := tx.Model(&model.Store{}).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return fmt.Errorf("check stores: %w", err)
	}
	if int(count) != len(unique) {
		return fmt.Errorf("%w: unknown store id", ErrInvalidInput)
	}
	return nil
}

func (s *ProductService) upload(ctx context.Context, productID uint, files []payload.ImageFile) ([]model.ProductImage, error) {
	images := make([]model.ProductImage, 0, len(files))
	for _, f := range files {
		key := fmt.Sprintf("products/%d/%s%s", productID, uuid.New().String(), f.Ext())

		src, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Filename, err)
		}
		location, err := s.images.Put(ctx, key, src, f.Size, f.MediaType())
		src.Close()
		if err != nil {
			return nil, err
		}
		prometheus.ImageUploadsCounter.Inc()

		images = append(images, model.ProductImage{
			ProductID: productID,
			ObjectKey: key,
			URL:       location,
		})
	}
	return images, nil
}
