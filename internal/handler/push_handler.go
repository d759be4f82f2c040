package handler

import (
	"errors"
	"net/http"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/push"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/session"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// UnsubscribeRequest is the body of DELETE /api/push/subscriptions
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// PushHandler registers browsers and broadcasts offers
type PushHandler struct {
	push           *push.Service
	vapidPublicKey string
}

// NewPushHandler creates a new push handler
func NewPushHandler(svc *push.Service, vapidPublicKey string) *PushHandler {
	return &PushHandler{push: svc, vapidPublicKey: vapidPublicKey}
}

// VAPIDPublicKey returns the application server key browsers subscribe with
func (h *PushHandler) VAPIDPublicKey(c echo.Context) error {
	if h.vapidPublicKey == "" {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "push notifications are not configured"})
	}
	return c.JSON(http.StatusOK, echo.Map{"public_key": h.vapidPublicKey})
}

// Subscribe stores the browser subscription for the signed in user
func (h *PushHandler) Subscribe(c echo.Context) error {
	log := logger.FromContext(c)

	sess, err := session.FromContext(c)
	if err != nil {
		return err
	}

	var req push.Subscription
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sub, err := h.push.Subscribe(c.Request().Context(), sess.UserID, req)
	if err != nil {
		log.Error("Failed to save push subscription", zap.Uint("user_id", sess.UserID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": push.ErrSubscriptionFailed.Error()})
	}

	log.Info("Push subscription saved", zap.Uint("user_id", sess.UserID), zap.Uint("subscription_id", sub.ID))
	return c.JSON(http.StatusCreated, sub)
}

// Unsubscribe removes one of the user's endpoints
func (h *PushHandler) Unsubscribe(c echo.Context) error {
	log := logger.FromContext(c)

	sess, err := session.FromContext(c)
	if err != nil {
		return err
	}

	var req UnsubscribeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	err = h.push.Unsubscribe(c.Request().Context(), sess.UserID, req.Endpoint)
	if errors.Is(err, push.ErrUnknownSubscription) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return respondError(c, log, err, "remove push subscription")
	}
	return c.NoContent(http.StatusNoContent)
}

// Broadcast sends a notification to every subscribed browser
func (h *PushHandler) Broadcast(c echo.Context) error {
	log := logger.FromContext(c)

	var req push.Notification
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.push.Broadcast(c.Request().Context(), req)
	if errors.Is(err, push.ErrPushDisabled) {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
	}
	if err != nil {
		return respondError(c, log, err, "broadcast notification")
	}
	return c.JSON(http.StatusOK, result)
}
