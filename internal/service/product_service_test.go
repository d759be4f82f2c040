package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/payload"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/database"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeImageStore struct {
	mu      sync.Mutex
	objects map[string]string
	removed []string
	failPut bool
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{objects: map[string]string{}}
}

func (f *fakeImageStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if f.failPut {
		return "", errors.New("storage unavailable")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = string(body)
	return "https://cdn.test/" + key, nil
}

func (f *fakeImageStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.removed = append(f.removed, key)
	return nil
}

func image(name, body string) payload.ImageFile {
	return payload.ImageFile{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

func seedStores(t *testing.T, db *gorm.DB, names ...string) []model.Store {
	t.Helper()
	stores := make([]model.Store, 0, len(names))
	for _, name := range names {
		store := model.Store{Name: name, City: "Belo Horizonte", IsActive: true}
		if err := db.Create(&store).Error; err != nil {
			t.Fatalf("Failed to seed store: %v", err)
		}
		stores = append(stores, store)
	}
	return stores
}

func newProductService(t *testing.T) (*ProductService, *fakeImageStore, *gorm.DB) {
	t.Helper()
	db := database.OpenTestDB(t)
	images := newFakeImageStore()
	return NewProductService(db, images, zap.NewNop()), images, db
}

func TestCreateProduct(t *testing.T) {
	svc, images, db := newProductService(t)
	stores := seedStores(t, db, "Centro", "Savassi")

	p := &payload.ProductInsertPayload{
		Fields: payload.ProductFields{
			Name:   "iPhone 15",
			Brand:  "Apple",
			Price:  decimal.RequireFromString("4999.90"),
			Stock:  2,
			Active: true,
		},
		StoreIDs: []uint{stores[1].ID, stores[0].ID, stores[1].ID},
		Images:   []payload.ImageFile{image("a.png", "first"), image("b.png", "second")},
	}

	product, err := svc.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(product.Stores) != 2 {
		t.Errorf("Expected duplicate store ids to collapse into 2 links, got %d", len(product.Stores))
	}
	if len(product.Images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(product.Images))
	}
	for i, img := range product.Images {
		if img.Position != i {
			t.Errorf("Image %d has position %d", i, img.Position)
		}
		if !strings.HasPrefix(img.ObjectKey, fmt.Sprintf("products/%d/", product.ID)) {
			t.Errorf("Unexpected object key %s", img.ObjectKey)
		}
		if !strings.HasSuffix(img.URL, img.ObjectKey) {
			t.Errorf("URL %s does not point at %s", img.URL, img.ObjectKey)
		}
	}
	if len(images.objects) != 2 {
		t.Errorf("Expected 2 stored objects, got %d", len(images.objects))
	}
	if !product.Price.Equal(decimal.RequireFromString("4999.90")) {
		t.Errorf("Unexpected price %s", product.Price)
	}
}

func TestCreateProductWithoutStores(t *testing.T) {
	svc, _, _ := newProductService(t)

	product, err := svc.Create(context.Background(), &payload.ProductInsertPayload{
		Fields: payload.ProductFields{Name: "Película", Price: decimal.NewFromInt(20), Active: true},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(product.Stores) != 0 || len(product.Images) != 0 {
		t.Errorf("Expected no stores or images, got %d / %d", len(product.Stores), len(product.Images))
	}
}

func TestCreateProductRollsBackOnUploadFailure(t *testing.T) {
	svc, images, db := newProductService(t)
	images.failPut = true

	_, err := svc.Create(context.Background(), &payload.ProductInsertPayload{
		Fields: payload.ProductFields{Name: "X", Price: decimal.NewFromInt(1)},
		Images: []payload.ImageFile{image("a.png", "x")},
	})
	if err == nil {
		t.Fatal("Expected upload failure to fail the create")
	}

	var count int64
	db.Model(&model.Product{}).Count(&count)
	if count != 0 {
		t.Errorf("Expected product insert to be rolled back, found %d rows", count)
	}
}

func TestCreateProductRejectsUnknownStore(t *testing.T) {
	svc, images, db := newProductService(t)
	stores := seedStores(t, db, "Centro")

	_, err := svc.Create(context.Background(), &payload.ProductInsertPayload{
		Fields:   payload.ProductFields{Name: "Redmi Note 13", Price: decimal.NewFromInt(1299), Active: true},
		StoreIDs: []uint{stores[0].ID, 999},
		Images:   []payload.ImageFile{image("a.png", "a")},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}

	var products, links int64
	db.Model(&model.Product{}).Count(&products)
	db.Model(&model.ProductStore{}).Count(&links)
	if products != 0 || links != 0 {
		t.Errorf("Expected nothing persisted, found %d products and %d links", products, links)
	}
	if len(images.objects) != 0 {
		t.Errorf("Expected no upload before the store check, got %d objects", len(images.objects))
	}
}

func TestCreateProductRejectsDeletedStore(t *testing.T) {
	svc, _, db := newProductService(t)
	stores := seedStores(t, db, "Centro")
	if err := db.Delete(&stores[0]).Error; err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	_, err := svc.Create(context.Background(), &payload.ProductInsertPayload{
		Fields:   payload.ProductFields{Name: "X", Price: decimal.NewFromInt(1)},
		StoreIDs: []uint{stores[0].ID},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput for a deleted store, got %v", err)
	}
}

func TestCreateProductRejectsInvalidPayload(t *testing.T) {
	svc, _, _ := newProductService(t)

	_, err := svc.Create(context.Background(), &payload.ProductInsertPayload{
		Fields: payload.ProductFields{Price: decimal.NewFromInt(1)},
	})
	if !errors.Is(err, payload.ErrInvalidPayload) {
		t.Fatalf("Expected ErrInvalidPayload, got %v", err)
	}
}

func TestUpdateProduct(t *testing.T) {
	svc, images, db := newProductService(t)
	stores := seedStores(t, db, "Centro", "Savassi")
	ctx := context.Background()

	created, err := svc.Create(ctx, &payload.ProductInsertPayload{
		Fields:   payload.ProductFields{Name: "Galaxy S24", Price: decimal.NewFromInt(3999), Active: true},
		StoreIDs: []uint{stores[0].ID},
		Images:   []payload.ImageFile{image("a.png", "a"), image("b.png", "b")},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	dropped := created.Images[0]

	updated, err := svc.Update(ctx, created.ID, &payload.ProductUpdatePayload{
		Fields: payload.ProductFields{
			Name:             "Galaxy S24 128GB",
			Price:            decimal.NewFromInt(3999),
			PromotionalPrice: decimal.NewNullDecimal(decimal.NewFromInt(3699)),
			Active:           false,
		},
		StoreIDs:       []uint{stores[1].ID},
		NewImages:      []payload.ImageFile{image("c.png", "c")},
		DeleteImageIDs: []uint{dropped.ID},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Name != "Galaxy S24 128GB" || updated.IsActive {
		t.Errorf("Fields not applied: %+v", updated)
	}
	if !updated.PromotionalPrice.Valid {
		t.Error("Expected promotional price to be set")
	}
	if len(updated.Stores) != 1 || updated.Stores[0].ID != stores[1].ID {
		t.Errorf("Expected store links to be replaced, got %+v", updated.Stores)
	}
	if len(updated.Images) != 2 {
		t.Fatalf("Expected 2 images, got %d", len(updated.Images))
	}
	if updated.Images[0].ID != created.Images[1].ID || updated.Images[0].Position != 0 || updated.Images[1].Position != 1 {
		t.Errorf("Unexpected image order %+v", updated.Images)
	}
	if len(images.removed) != 1 || images.removed[0] != dropped.ObjectKey {
		t.Errorf("Expected %s removed from storage, got %v", dropped.ObjectKey, images.removed)
	}
}

func TestUpdateProductRejectsUnknownStore(t *testing.T) {
	svc, _, db := newProductService(t)
	stores := seedStores(t, db, "Centro")
	ctx := context.Background()

	created, err := svc.Create(ctx, &payload.ProductInsertPayload{
		Fields:   payload.ProductFields{Name: "Galaxy S24", Price: decimal.NewFromInt(3999), Active: true},
		StoreIDs: []uint{stores[0].ID},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svc.Update(ctx, created.ID, &payload.ProductUpdatePayload{
		Fields:   payload.ProductFields{Name: "Renamed", Price: decimal.NewFromInt(3999), Active: true},
		StoreIDs: []uint{999},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}

	current, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if current.Name != "Galaxy S24" || len(current.Stores) != 1 || current.Stores[0].ID != stores[0].ID {
		t.Errorf("Expected the failed update to be rolled back, got %q with stores %+v", current.Name, current.Stores)
	}
}

func TestUpdateProductRejectsForeignImage(t *testing.T) {
	svc, _, _ := newProductService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, &payload.ProductInsertPayload{
		Fields: payload.ProductFields{Name: "A", Price: decimal.NewFromInt(1)},
		Images: []payload.ImageFile{image("a.png", "a")},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	b, err := svc.Create(ctx, &payload.ProductInsertPayload{
		Fields: payload.ProductFields{Name: "B", Price: decimal.NewFromInt(1)},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svc.Update(ctx, b.ID, &payload.ProductUpdatePayload{
		Fields:         payload.ProductFields{Name: "B", Price: decimal.NewFromInt(1)},
		DeleteImageIDs: []uint{a.Images[0].ID},
	})
	if !errors.Is(err, payload.ErrInvalidPayload) {
		t.Fatalf("Expected ErrInvalidPayload, got %v", err)
	}
}

func TestUpdateMissingProduct(t *testing.T) {
	svc, _, _ := newProductService(t)

	_, err := svc.Update(context.Background(), 404, &payload.ProductUpdatePayload{
		Fields: payload.ProductFields{Name: "X", Price: decimal.NewFromInt(1)},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListProducts(t *testing.T) {
	svc, _, db := newProductService(t)
	stores := seedStores(t, db, "Centro", "Savassi")
	ctx := context.Background()

	inputs := []payload.ProductInsertPayload{
		{Fields: payload.ProductFields{Name: "iPhone 15", Brand: "Apple", Price: decimal.NewFromInt(4999), Active: true, Featured: true}, StoreIDs: []uint{stores[0].ID}},
		{Fields: payload.ProductFields{Name: "Galaxy A15", Brand: "Samsung", Price: decimal.NewFromInt(999), Active: true}, StoreIDs: []uint{stores[1].ID}},
		{Fields: payload.ProductFields{Name: "Moto G", Brand: "Motorola", Price: decimal.NewFromInt(899), Active: false}, StoreIDs: []uint{stores[0].ID, stores[1].ID}},
	}
	for i := range inputs {
		if _, err := svc.Create(ctx, &inputs[i]); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"all", "", []string{"iPhone 15", "Moto G", "Galaxy A15"}},
		{"active only", "is_active=true", []string{"iPhone 15", "Galaxy A15"}},
		{"search", "q=galaxy", []string{"Galaxy A15"}},
		{"brand", "brand=Apple", []string{"iPhone 15"}},
		{"store", fmt.Sprintf("store_id=%d", stores[1].ID), []string{"Moto G", "Galaxy A15"}},
		{"max price", "max_price=1000", []string{"Moto G", "Galaxy A15"}},
		{"page", "limit=1&offset=1", []string{"Moto G"}},
		{"underscore is literal", "q=_", nil},
		{"percent is literal", "q=%25", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			filter, err := ParseProductFilter(values)
			if err != nil {
				t.Fatalf("ParseProductFilter failed: %v", err)
			}
			products, total, err := svc.List(ctx, filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}

			var names []string
			for _, p := range products {
				names = append(names, p.Name)
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Expected %v, got %v", tt.want, names)
			}
			if tt.name != "page" && int(total) != len(tt.want) {
				t.Errorf("Expected total %d, got %d", len(tt.want), total)
			}
		})
	}
}

func TestListProductsSearchMatchesWildcardsLiterally(t *testing.T) {
	svc, _, _ := newProductService(t)
	ctx := context.Background()

	for _, name := range []string{"Cabo USB_C", "Cabo USBXC", "Capa 100% silicone"} {
		if _, err := svc.Create(ctx, &payload.ProductInsertPayload{
			Fields: payload.ProductFields{Name: name, Price: decimal.NewFromInt(30), Active: true},
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	tests := []struct {
		query string
		want  string
	}{
		{"usb_c", "Cabo USB_C"},
		{"100%", "Capa 100% silicone"},
	}
	for _, tt := range tests {
		products, total, err := svc.List(ctx, ProductFilter{Query: tt.query, Limit: 10})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if total != 1 || len(products) != 1 || products[0].Name != tt.want {
			t.Errorf("q=%s: expected only %q, got %d products", tt.query, tt.want, len(products))
		}
	}
}

func TestParseProductFilterRejectsBadValues(t *testing.T) {
	for _, raw := range []string{"store_id=abc", "is_active=maybe", "min_price=cheap", "limit=0", "offset=-1"} {
		values, _ := url.ParseQuery(raw)
		if _, err := ParseProductFilter(values); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", raw, err)
		}
	}

	values, _ := url.ParseQuery("limit=1000")
	filter, err := ParseProductFilter(values)
	if err != nil || filter.Limit != maxListLimit {
		t.Errorf("Expected limit to be capped at %d, got %d (%v)", maxListLimit, filter.Limit, err)
	}
}

func TestDeleteProduct(t *testing.T) {
	svc, _, _ := newProductService(t)
	ctx := context.Background()

	product, err := svc.Create(ctx, &payload.ProductInsertPayload{
		Fields: payload.ProductFields{Name: "X", Price: decimal.NewFromInt(1)},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(ctx, product.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := svc.Get(ctx, product.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected deleted product to be gone, got %v", err)
	}
	if err := svc.Delete(ctx, product.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected second delete to report ErrNotFound, got %v", err)
	}
}
