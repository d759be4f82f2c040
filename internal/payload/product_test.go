package payload

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"

	"github.com/shopspring/decimal"
)

func buildForm(t *testing.T, fields [][2]string, files map[string]string) *multipart.Form {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			t.Fatalf("WriteField failed: %v", err)
		}
	}
	for name, body := range files {
		img := ImageFile{
			Filename:    name,
			ContentType: "image/png",
			Size:        int64(len(body)),
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader(body)), nil
			},
		}
		if err := writeImage(w, img); err != nil {
			t.Fatalf("writeImage failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	if err != nil {
		t.Fatalf("ReadForm failed: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form
}

func TestParseInsert(t *testing.T) {
	form := buildForm(t, [][2]string{
		{FieldName, "iPhone 15"},
		{FieldPrice, "4999,90"},
		{FieldPromotionalPrice, "4599.9"},
		{FieldStock, "3"},
		{FieldFeatured, "on"},
		{FieldStoreIDs, "2"},
		{FieldStoreIDs, "1,2"},
	}, map[string]string{"front.png": "png-bytes"})

	p, err := ParseInsert(form)
	if err != nil {
		t.Fatalf("ParseInsert failed: %v", err)
	}

	if p.Fields.Name != "iPhone 15" {
		t.Errorf("Unexpected name '%s'", p.Fields.Name)
	}
	if !p.Fields.Price.Equal(decimal.RequireFromString("4999.90")) {
		t.Errorf("Unexpected price %s", p.Fields.Price)
	}
	if !p.Fields.PromotionalPrice.Valid || p.Fields.PromotionalPrice.Decimal.StringFixed(2) != "4599.90" {
		t.Errorf("Unexpected promotional price %+v", p.Fields.PromotionalPrice)
	}
	if !p.Fields.Active || !p.Fields.Featured || p.Fields.Stock != 3 {
		t.Errorf("Unexpected flags %+v", p.Fields)
	}
	// duplicates are left for the persistence layer
	if !reflect.DeepEqual(p.StoreIDs, []uint{2, 1, 2}) {
		t.Errorf("Expected store ids [2 1 2], got %v", p.StoreIDs)
	}
	if len(p.Images) != 1 || p.Images[0].Filename != "front.png" {
		t.Fatalf("Expected one image, got %+v", p.Images)
	}
}

func TestParseInsertWithoutStoresOrImages(t *testing.T) {
	form := buildForm(t, [][2]string{{FieldName, "Capinha"}, {FieldPrice, "29.90"}}, nil)

	p, err := ParseInsert(form)
	if err != nil {
		t.Fatalf("Expected empty stores and images to be legal: %v", err)
	}
	if len(p.StoreIDs) != 0 || len(p.Images) != 0 {
		t.Errorf("Expected no stores and no images, got %v / %v", p.StoreIDs, p.Images)
	}
}

func TestParseInsertValidation(t *testing.T) {
	tests := []struct {
		name   string
		fields [][2]string
		field  string
	}{
		{"missing name", [][2]string{{FieldPrice, "10"}}, FieldName},
		{"missing price", [][2]string{{FieldName, "X"}}, FieldPrice},
		{"bad price", [][2]string{{FieldName, "X"}, {FieldPrice, "abc"}}, FieldPrice},
		{"negative price", [][2]string{{FieldName, "X"}, {FieldPrice, "-1"}}, FieldPrice},
		{"promo above price", [][2]string{{FieldName, "X"}, {FieldPrice, "10"}, {FieldPromotionalPrice, "11"}}, FieldPromotionalPrice},
		{"bad store id", [][2]string{{FieldName, "X"}, {FieldPrice, "10"}, {FieldStoreIDs, "a"}}, FieldStoreIDs},
		{"bad flag", [][2]string{{FieldName, "X"}, {FieldPrice, "10"}, {FieldActive, "maybe"}}, FieldActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInsert(buildForm(t, tt.fields, nil))
			if !errors.Is(err, ErrInvalidPayload) {
				t.Fatalf("Expected ErrInvalidPayload, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("Expected error on field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestValidateRejectsBadImages(t *testing.T) {
	open := func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("x")), nil }

	p := &ProductInsertPayload{
		Fields: ProductFields{Name: "X", Price: decimal.NewFromInt(1)},
		Images: []ImageFile{{Filename: "notes.txt", ContentType: "text/plain", Size: 1, Open: open}},
	}
	if err := p.Validate(); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Expected text file to be rejected, got %v", err)
	}

	p.Images = []ImageFile{{Filename: "big.jpg", ContentType: "image/jpeg", Size: MaxImageSize + 1, Open: open}}
	if err := p.Validate(); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("Expected oversized image to be rejected, got %v", err)
	}

	p.Images = []ImageFile{{Filename: "photo.webp", ContentType: "application/octet-stream", Size: 10, Open: open}}
	if err := p.Validate(); err != nil {
		t.Errorf("Expected extension fallback to accept webp, got %v", err)
	}
}

func TestFinalImages(t *testing.T) {
	existing := []model.ProductImage{
		{ID: 10, URL: "a", Position: 0},
		{ID: 11, URL: "b", Position: 1},
		{ID: 12, URL: "c", Position: 2},
	}
	p := &ProductUpdatePayload{
		Fields:         ProductFields{Name: "X", Price: decimal.NewFromInt(1)},
		ExistingImages: existing,
		DeleteImageIDs: []uint{11},
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	uploaded := []model.ProductImage{{URL: "new-1"}, {URL: "new-2"}}
	final := p.FinalImages(uploaded)

	var urls []string
	for i, img := range final {
		urls = append(urls, img.URL)
		if img.Position != i {
			t.Errorf("Image %s has position %d, want %d", img.URL, img.Position, i)
		}
	}
	if !reflect.DeepEqual(urls, []string{"a", "c", "new-1", "new-2"}) {
		t.Errorf("Unexpected final image order %v", urls)
	}

	removed := p.RemovedImages()
	if len(removed) != 1 || removed[0].ID != 11 {
		t.Errorf("Expected image 11 removed, got %+v", removed)
	}
	if existing[2].Position != 2 {
		t.Error("FinalImages must not renumber the caller's existing slice")
	}
}

func TestUpdateRejectsForeignImageDeletion(t *testing.T) {
	form := buildForm(t, [][2]string{
		{FieldName, "X"},
		{FieldPrice, "1"},
		{FieldDeleteImageIDs, "99"},
	}, nil)

	_, err := ParseUpdate(form, []model.ProductImage{{ID: 1}})
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("Expected ErrInvalidPayload, got %v", err)
	}
}

func TestWriteMultipartIsReadByParseUpdate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "back.jpg")
	if err := os.WriteFile(path, []byte("jpeg-bytes"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	img, err := FromPath(path)
	if err != nil {
		t.Fatalf("FromPath failed: %v", err)
	}

	in := &ProductUpdatePayload{
		Fields: ProductFields{
			Name:             "Galaxy S24",
			Price:            decimal.RequireFromString("3999.00"),
			PromotionalPrice: decimal.NewNullDecimal(decimal.RequireFromString("3799.00")),
			Active:           false,
		},
		StoreIDs:       []uint{3, 3},
		NewImages:      []ImageFile{img},
		DeleteImageIDs: []uint{5},
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := in.WriteMultipart(w); err != nil {
		t.Fatalf("WriteMultipart failed: %v", err)
	}
	w.Close()

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(10 << 20)
	if err != nil {
		t.Fatalf("ReadForm failed: %v", err)
	}
	defer form.RemoveAll()

	out, err := ParseUpdate(form, []model.ProductImage{{ID: 5}})
	if err != nil {
		t.Fatalf("ParseUpdate failed: %v", err)
	}
	if out.Fields.Active {
		t.Error("Expected is_active=false to survive encoding")
	}
	if !reflect.DeepEqual(out.StoreIDs, []uint{3, 3}) || !reflect.DeepEqual(out.DeleteImageIDs, []uint{5}) {
		t.Errorf("Unexpected ids %v / %v", out.StoreIDs, out.DeleteImageIDs)
	}
	if len(out.NewImages) != 1 || out.NewImages[0].MediaType() != "image/jpeg" {
		t.Fatalf("Expected one jpeg image, got %+v", out.NewImages)
	}

	rc, err := out.NewImages[0].Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	if string(body) != "jpeg-bytes" {
		t.Errorf("Unexpected image content %q", body)
	}
}
