// Package gateway is the HTTP client of the storefront API used by the
// command line tools and by other services.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/payload"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/push"

	"go.uber.org/zap"
)

// APIError is returned for every non-2xx response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed: %d %s", e.StatusCode, e.Message)
}

// ProductList is one page of products
type ProductList struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// Session is an issued access token
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      model.User `json:"user"`
}

// Client talks to the storefront API. Requests are sent once; failures are
// returned to the caller without retrying.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a new API client
func NewClient(baseURL string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Logger:     logger,
	}
}

// ListProducts fetches products. The filters are sent as given.
func (c *Client) ListProducts(ctx context.Context, filters url.Values) (*ProductList, error) {
	path := "/api/products"
	if encoded := filters.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var list ProductList
	if err := c.do(ctx, http.MethodGet, path, "", nil, "", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// GetProduct fetches one product with its stores and images
func (c *Client) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), "", nil, "", &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct uploads a new product with its images
func (c *Client) CreateProduct(ctx context.Context, token string, p *payload.ProductInsertPayload) (*model.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipart(p.WriteMultipart)
	if err != nil {
		return nil, err
	}

	var product model.Product
	if err := c.do(ctx, http.MethodPost, "/api/products", token, body, contentType, &product); err != nil {
		return nil, err
	}
	c.Logger.Info("Product created",
		zap.Uint("product_id", product.ID),
		zap.Int("images", len(product.Images)))
	return &product, nil
}

// UpdateProduct replaces the product fields and stores, adds new images and
// drops the listed ones
func (c *Client) UpdateProduct(ctx context.Context, token string, id uint, p *payload.ProductUpdatePayload) (*model.Product, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := encodeMultipart(p.WriteMultipart)
	if err != nil {
		return nil, err
	}

	var product model.Product
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/products/%d", id), token, body, contentType, &product); err != nil {
		return nil, err
	}
	c.Logger.Info("Product updated", zap.Uint("product_id", product.ID))
	return &product, nil
}

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", bytes.NewReader(body), "application/json", &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// SubscribePush registers a browser subscription for the token's user
func (c *Client) SubscribePush(ctx context.Context, token string, sub push.Subscription) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, "/api/push/subscriptions", token, bytes.NewReader(body), "application/json", nil)
}

// Broadcast asks the server to send a notification to every subscription
func (c *Client) Broadcast(ctx context.Context, token string, n push.Notification) (*push.BroadcastResult, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}

	var result push.BroadcastResult
	if err := c.do(ctx, http.MethodPost, "/api/notifications", token, bytes.NewReader(body), "application/json", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Registrar adapts the client to push.Registrar for the given token. The
// user is taken from the token, not from the userID argument.
func (c *Client) Registrar(token string) push.Registrar {
	return tokenRegistrar{client: c, token: token}
}

type tokenRegistrar struct {
	client *Client
	token  string
}

func (r tokenRegistrar) RegisterSubscription(ctx context.Context, userID uint, sub push.Subscription) error {
	return r.client.SubscribePush(ctx, r.token, sub)
}

func encodeMultipart(write func(w *multipart.Writer) error) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := write(w); err != nil {
		return nil, "", fmt.Errorf("encode multipart body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

// do sends one request and decodes a 2xx JSON body into out
func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.Logger.Error("API request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.Logger.Error("Failed to read API response", zap.Error(err))
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var errorResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errorResp) == nil && errorResp.Error != "" {
			apiErr.Message = errorResp.Error
		}
		c.Logger.Warn("API returned an error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return apiErr
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		c.Logger.Error("Failed to parse API response", zap.Error(err))
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
