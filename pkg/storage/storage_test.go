package storage

import (
	"encoding/json"
	"testing"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/config"
)

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{"endpoint", config.StorageConfig{Endpoint: "localhost:9000", BucketName: "product-images"}, "http://localhost:9000/product-images"},
		{"ssl", config.StorageConfig{Endpoint: "s3.bvcelular.com.br", BucketName: "imgs", UseSSL: true}, "https://s3.bvcelular.com.br/imgs"},
		{"configured", config.StorageConfig{Endpoint: "minio:9000", BucketName: "imgs", PublicBaseURL: "https://cdn.bvcelular.com.br/"}, "https://cdn.bvcelular.com.br"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := publicBaseURL(&tt.cfg); got != tt.want {
				t.Errorf("Expected '%s', got '%s'", tt.want, got)
			}
		})
	}
}

func TestURLEscapesKey(t *testing.T) {
	s := &ObjectStore{publicBase: "http://localhost:9000/product-images"}

	tests := []struct {
		key  string
		want string
	}{
		{"products/1/abc.png", "http://localhost:9000/product-images/products/1/abc.png"},
		{"products/1/foto frente.png", "http://localhost:9000/product-images/products/1/foto%20frente.png"},
		{"products/1/promoção.jpg", "http://localhost:9000/product-images/products/1/promo%C3%A7%C3%A3o.jpg"},
	}

	for _, tt := range tests {
		if got := s.URL(tt.key); got != tt.want {
			t.Errorf("URL(%q): expected '%s', got '%s'", tt.key, tt.want, got)
		}
	}
}

func TestPublicReadPolicy(t *testing.T) {
	raw, err := publicReadPolicy("product-images")
	if err != nil {
		t.Fatalf("publicReadPolicy failed: %v", err)
	}

	var doc bucketPolicy
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("Policy is not valid JSON: %v", err)
	}
	if doc.Version != "2012-10-17" || len(doc.Statement) != 1 {
		t.Fatalf("Unexpected policy %s", raw)
	}

	st := doc.Statement[0]
	if st.Effect != "Allow" {
		t.Errorf("Expected Allow, got '%s'", st.Effect)
	}
	if len(st.Principal["AWS"]) != 1 || st.Principal["AWS"][0] != "*" {
		t.Errorf("Expected anonymous principal, got %v", st.Principal)
	}
	if len(st.Action) != 1 || st.Action[0] != "s3:GetObject" {
		t.Errorf("Only object reads may be public, got %v", st.Action)
	}
	if len(st.Resource) != 1 || st.Resource[0] != "arn:aws:s3:::product-images/*" {
		t.Errorf("Unexpected resource %v", st.Resource)
	}
}
