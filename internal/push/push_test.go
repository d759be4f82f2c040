package push

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/internal/model"
	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/database"

	"go.uber.org/zap"
)

func TestParsePushEventDefaults(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Notification
	}{
		{"empty", "", Notification{Title: DefaultTitle, Body: DefaultBody, URL: DefaultURL}},
		{"malformed", "{not json", Notification{Title: DefaultTitle, Body: DefaultBody, URL: DefaultURL}},
		{"partial", `{"title":"Promoção"}`, Notification{Title: "Promoção", Body: DefaultBody, URL: DefaultURL}},
		{"full", `{"title":"T","body":"B","image":"https://img/x.png","url":"/produtos/7"}`,
			Notification{Title: "T", Body: "B", Image: "https://img/x.png", URL: "/produtos/7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePushEvent([]byte(tt.data)); got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestDisplayAndClickTarget(t *testing.T) {
	d := Notification{Title: "Oferta", URL: "/produtos/3"}.Display()
	if d.Body != DefaultBody {
		t.Errorf("Expected default body, got %q", d.Body)
	}
	if len(d.Actions) != 1 || d.Actions[0].Action != "open" || d.Actions[0].Title != "Ver Oferta" {
		t.Errorf("Unexpected actions %+v", d.Actions)
	}
	if ClickTarget(d.Data) != "/produtos/3" {
		t.Errorf("Unexpected click target %q", ClickTarget(d.Data))
	}
	if ClickTarget(nil) != "/" {
		t.Errorf("Expected default click target '/', got %q", ClickTarget(nil))
	}
}

type fakeRegistrar struct {
	calls int
	err   error
}

func (f *fakeRegistrar) RegisterSubscription(ctx context.Context, userID uint, sub Subscription) error {
	f.calls++
	return f.err
}

func TestSubscriberIsIdempotent(t *testing.T) {
	registrar := &fakeRegistrar{}
	s := NewSubscriber(registrar)
	sub := Subscription{Endpoint: "https://push.test/1", Keys: Keys{P256dh: "p", Auth: "a"}}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Subscribe(context.Background(), 1, sub); err != nil {
				t.Errorf("Subscribe failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if registrar.calls != 1 {
		t.Errorf("Expected a single registration, got %d", registrar.calls)
	}
	if !s.Subscribed() {
		t.Error("Expected subscriber to be marked subscribed")
	}
}

func TestSubscriberFailure(t *testing.T) {
	cause := errors.New("permission denied")
	registrar := &fakeRegistrar{err: cause}
	s := NewSubscriber(registrar)

	err := s.Subscribe(context.Background(), 1, Subscription{Endpoint: "https://push.test/1"})
	if !errors.Is(err, ErrSubscriptionFailed) || !errors.Is(err, cause) {
		t.Fatalf("Expected ErrSubscriptionFailed wrapping the cause, got %v", err)
	}
	if err.Error() != ErrSubscriptionFailed.Error() {
		t.Errorf("Expected the user facing message, got %q", err.Error())
	}
	if s.Subscribed() {
		t.Error("Failed subscription must not be marked subscribed")
	}

	registrar.err = nil
	if err := s.Subscribe(context.Background(), 1, Subscription{Endpoint: "https://push.test/1"}); err != nil {
		t.Errorf("Expected a later attempt to succeed, got %v", err)
	}
}

type fakeSender struct {
	status map[string]int
	err    map[string]error
	sent   []string
}

func (f *fakeSender) Send(ctx context.Context, sub model.PushSubscription, payload []byte) (int, error) {
	f.sent = append(f.sent, sub.Endpoint)
	if err := f.err[sub.Endpoint]; err != nil {
		return 0, err
	}
	if status, ok := f.status[sub.Endpoint]; ok {
		return status, nil
	}
	return http.StatusCreated, nil
}

func TestServiceSubscribeUpsertsByEndpoint(t *testing.T) {
	db := database.OpenTestDB(t)
	svc := NewService(db, nil, zap.NewNop())
	ctx := context.Background()

	sub := Subscription{Endpoint: "https://push.test/a", Keys: Keys{P256dh: "p1", Auth: "a1"}}
	if _, err := svc.Subscribe(ctx, 1, sub); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	sub.Keys = Keys{P256dh: "p2", Auth: "a2"}
	if _, err := svc.Subscribe(ctx, 2, sub); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	var rows []model.PushSubscription
	db.Find(&rows)
	if len(rows) != 1 {
		t.Fatalf("Expected one row per endpoint, got %d", len(rows))
	}
	if rows[0].UserID != 2 || rows[0].P256dh != "p2" || rows[0].Auth != "a2" {
		t.Errorf("Expected endpoint to be moved with new keys, got %+v", rows[0])
	}

	if err := svc.Unsubscribe(ctx, 1, sub.Endpoint); !errors.Is(err, ErrUnknownSubscription) {
		t.Errorf("Expected ErrUnknownSubscription for another user's endpoint, got %v", err)
	}
	if err := svc.Unsubscribe(ctx, 2, sub.Endpoint); err != nil {
		t.Errorf("Unsubscribe failed: %v", err)
	}
}

func TestBroadcastRemovesExpiredSubscriptions(t *testing.T) {
	db := database.OpenTestDB(t)
	sender := &fakeSender{
		status: map[string]int{
			"https://push.test/gone":     http.StatusGone,
			"https://push.test/missing":  http.StatusNotFound,
			"https://push.test/rejected": http.StatusBadRequest,
		},
		err: map[string]error{"https://push.test/down": errors.New("connection refused")},
	}
	svc := NewService(db, sender, zap.NewNop())
	ctx := context.Background()

	for _, endpoint := range []string{
		"https://push.test/ok",
		"https://push.test/gone",
		"https://push.test/missing",
		"https://push.test/rejected",
		"https://push.test/down",
	} {
		if _, err := svc.Subscribe(ctx, 1, Subscription{Endpoint: endpoint, Keys: Keys{P256dh: "p", Auth: "a"}}); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
	}

	result, err := svc.Broadcast(ctx, Notification{Title: "Black Friday"})
	if err != nil {
		t.Fatalf("Broadcast failed: %v", err)
	}
	if result != (BroadcastResult{Sent: 1, Failed: 2, Expired: 2}) {
		t.Errorf("Unexpected result %+v", result)
	}
	if len(sender.sent) != 5 {
		t.Errorf("Expected one attempt per subscription, got %d", len(sender.sent))
	}

	var remaining int64
	db.Model(&model.PushSubscription{}).Count(&remaining)
	if remaining != 3 {
		t.Errorf("Expected expired subscriptions to be removed, %d remain", remaining)
	}
}

func TestBroadcastWithoutSender(t *testing.T) {
	svc := NewService(database.OpenTestDB(t), nil, zap.NewNop())
	if _, err := svc.Broadcast(context.Background(), Notification{}); !errors.Is(err, ErrPushDisabled) {
		t.Fatalf("Expected ErrPushDisabled, got %v", err)
	}
}
