package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/prometheus"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUnknownSubscription is returned when unsubscribing an endpoint the user does not own
	ErrUnknownSubscription = errors.New("push subscription not found")
	// ErrPushDisabled is returned by Broadcast when no sender is configured
	ErrPushDisabled = errors.New("push delivery is not configured")
)

// BroadcastResult counts the outcome of a broadcast
type BroadcastResult struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Expired int `json:"expired"`
}

// Service keeps subscriptions in the database and delivers notifications
type Service struct {
	db     *gorm.DB
	sender Sender
	log    *zap.Logger
}

// NewService creates a push service. A nil sender disables Broadcast.
func NewService(db *gorm.DB, sender Sender, log *zap.Logger) *Service {
	return &Service{db: db, sender: sender, log: log}
}

// Subscribe stores the subscription for the user. A known endpoint is moved
// to the user and gets the new keys.
func (s *Service) Subscribe(ctx context.Context, userID uint, sub Subscription) (*model.PushSubscription, error) {
	defer prometheus.TrackDBOperation("push_subscribe")(time.Now())

	row := model.PushSubscription{
		UserID:   userID,
		Endpoint: sub.Endpoint,
		P256dh:   sub.Keys.P256dh,
		Auth:     sub.Keys.Auth,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "p256dh", "auth", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return nil, fmt.Errorf("save push subscription: %w", err)
	}
	prometheus.RecordPushSubscription("subscribe")
	return &row, nil
}

// RegisterSubscription lets the service act as the Registrar of a Subscriber
func (s *Service) RegisterSubscription(ctx context.Context, userID uint, sub Subscription) error {
	_, err := s.Subscribe(ctx, userID, sub)
	return err
}

// Unsubscribe removes one endpoint of the user
func (s *Service) Unsubscribe(ctx context.Context, userID uint, endpoint string) error {
	defer prometheus.TrackDBOperation("push_unsubscribe")(time.Now())

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ?", userID, endpoint).
		Delete(&model.PushSubscription{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUnknownSubscription
	}
	prometheus.RecordPushSubscription("unsubscribe")
	return nil
}

// Broadcast sends the notification to every subscription once. Subscriptions
// the push service reports as gone are deleted.
func (s *Service) Broadcast(ctx context.Context, n Notification) (BroadcastResult, error) {
	var result BroadcastResult
	if s.sender == nil {
		return result, ErrPushDisabled
	}

	payload, err := n.Encode()
	if err != nil {
		return result, fmt.Errorf("encode notification: %w", err)
	}

	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&subs).Error; err != nil {
		return result, err
	}

	var gone []uint
	for _, sub := range subs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		status, err := s.sender.Send(ctx, sub, payload)
		switch {
		case err != nil:
			result.Failed++
			prometheus.RecordPushDelivery("error")
			s.log.Warn("Push delivery failed",
				zap.Uint("subscription_id", sub.ID),
				zap.Error(err))
		case expired(status):
			result.Expired++
			gone = append(gone, sub.ID)
			prometheus.RecordPushDelivery("expired")
		case status >= http.StatusBadRequest:
			result.Failed++
			prometheus.RecordPushDelivery("rejected")
			s.log.Warn("Push service rejected notification",
				zap.Uint("subscription_id", sub.ID),
				zap.Int("status", status))
		default:
			result.Sent++
			prometheus.RecordPushDelivery("sent")
		}
	}

	if len(gone) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", gone).Delete(&model.PushSubscription{}).Error; err != nil {
			return result, fmt.Errorf("remove expired subscriptions: %w", err)
		}
		for range gone {
			prometheus.RecordPushSubscription("expired")
		}
	}

	s.log.Info("Push broadcast finished",
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("expired", result.Expired))
	return result, nil
}
