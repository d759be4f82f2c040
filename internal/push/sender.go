package push

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/config"

	webpush "github.com/SherClockHolmes/webpush-go"
)

// Sender delivers an encrypted payload to one subscription and returns the
// push service status code
type Sender interface {
	Send(ctx context.Context, sub model.PushSubscription, payload []byte) (int, error)
}

// WebPushSender sends through the browser vendors' push services with VAPID
type WebPushSender struct {
	options webpush.Options
}

// NewWebPushSender creates a sender from the VAPID configuration
func NewWebPushSender(cfg *config.PushConfig) *WebPushSender {
	return &WebPushSender{
		options: webpush.Options{
			Subscriber:      cfg.Subscriber,
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			TTL:             cfg.TTL,
		},
	}
}

// Send encrypts and posts the payload
func (s *WebPushSender) Send(ctx context.Context, sub model.PushSubscription, payload []byte) (int, error) {
	options := s.options
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}, &options)
	if err != nil {
		return 0, fmt.Errorf("send push notification: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// GenerateVAPIDKeys returns a new private/public key pair for the server
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	return webpush.GenerateVAPIDKeys()
}

// expired reports whether the push service dropped the subscription
func expired(status int) bool {
	return status == http.StatusNotFound || status == http.StatusGone
}
