package push

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/hearthkeep/hearthkeep/internal/model"
	"github.com/hearthkeep/hearthkeep/internal/store"
)

// ErrExpired is returned when a push subscription is no longer valid (410 Gone).
var ErrExpired = errors.New("push subscription expired")

// Payload is the JSON sent to the push service.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

// Config holds VAPID configuration.
type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

// Service sends web push notifications to member devices.
type Service struct {
	cfg    Config
	store  *store.PushStore
	logger *slog.Logger
}

func NewService(cfg Config, st *store.PushStore, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, store: st, logger: logger}
}

// VAPIDPublicKey returns the public key browsers need to subscribe.
func (s *Service) VAPIDPublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// Send delivers a payload to a single subscription.
func (s *Service) Send(sub model.PushSubscription, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotification(body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      s.cfg.Subscriber,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             3600,
	})
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned status %d", resp.StatusCode)
	}
	return nil
}

// NotifyAssignment pushes a notification to all of the assignee's devices.
// Expired subscriptions are pruned as they are discovered; other delivery
// failures are logged and skipped.
func (s *Service) NotifyAssignment(memberID int64, task *model.Task) {
	subs, err := s.store.ListByMember(memberID)
	if err != nil {
		s.logger.Error("list subscriptions", "error", err, "member_id", memberID)
		return
	}

	payload := Payload{
		Title: "Task assigned to you",
		Body:  task.Title,
		URL:   "/",
		Tag:   fmt.Sprintf("task-%d", task.ID),
	}

	for _, sub := range subs {
		err := s.Send(sub, payload)
		if errors.Is(err, ErrExpired) {
			if err := s.store.Delete(sub.ID); err != nil {
				s.logger.Error("prune expired subscription", "error", err, "id", sub.ID)
			}
			continue
		}
		if err != nil {
			s.logger.Warn("push delivery failed", "error", err, "id", sub.ID)
		}
	}
}
