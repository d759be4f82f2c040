package push

import (
	"context"
	"errors"
	"sync"
)

// ErrSubscriptionFailed wraps every failed registration. Its message is safe
// to show to the user.
var ErrSubscriptionFailed = errors.New("Não foi possível ativar as notificações. Tente novamente.")

// Keys are the browser generated encryption keys of a subscription
type Keys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// Subscription is a browser push endpoint
type Subscription struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     Keys   `json:"keys" validate:"required"`
}

// Registrar stores a subscription for a user
type Registrar interface {
	RegisterSubscription(ctx context.Context, userID uint, sub Subscription) error
}

// Subscriber registers the current client once. The subscribed flag lives
// only as long as the Subscriber.
type Subscriber struct {
	registrar Registrar

	mu         sync.Mutex
	subscribed bool
}

// NewSubscriber creates a subscriber using the given registrar
func NewSubscriber(registrar Registrar) *Subscriber {
	return &Subscriber{registrar: registrar}
}

// Subscribe registers the subscription for the user. Calls after a success
// return nil without contacting the registrar.
func (s *Subscriber) Subscribe(ctx context.Context, userID uint, sub Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subscribed {
		return nil
	}
	if err := s.registrar.RegisterSubscription(ctx, userID, sub); err != nil {
		return &SubscribeError{Err: err}
	}
	s.subscribed = true
	return nil
}

// Subscribed reports whether a registration succeeded
func (s *Subscriber) Subscribed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribed
}

// SubscribeError keeps the registrar failure behind the user facing message
type SubscribeError struct {
	Err error
}

func (e *SubscribeError) Error() string {
	return ErrSubscriptionFailed.Error()
}

func (e *SubscribeError) Unwrap() []error {
	return []error{ErrSubscriptionFailed, e.Err}
}
