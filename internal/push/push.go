// Package push manages Web Push subscriptions and fans notifications out to
// them through a bounded worker pool.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/journal-desktop/journal-backend/internal/store"
	"github.com/journal-desktop/journal-backend/pkg/types"
)

// Notification is the payload delivered to browser subscriptions.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Service owns subscription bookkeeping and notification fan-out.
type Service struct {
	logger         *zap.Logger
	subs           store.SubscriptionStore
	dispatcher     *Dispatcher
	vapidPublicKey string
}

// NewService creates the push service. The dispatcher must already be started
// by the caller and stopped at shutdown.
func NewService(logger *zap.Logger, subs store.SubscriptionStore, dispatcher *Dispatcher, vapidPublicKey string) *Service {
	return &Service{logger: logger, subs: subs, dispatcher: dispatcher, vapidPublicKey: vapidPublicKey}
}

// VAPIDPublicKey returns the key browsers need to call PushManager.subscribe.
// Empty when push is not configured.
func (s *Service) VAPIDPublicKey() string {
	return s.vapidPublicKey
}

// Subscribe registers or re-owns a push endpoint for a user.
func (s *Service) Subscribe(ctx context.Context, sub types.Subscription) error {
	if sub.Endpoint == "" {
		return errors.New("push: subscription endpoint required")
	}
	sub.IsActive = true
	sub.LastUpdated = time.Now().UTC()
	if err := s.subs.UpsertSubscription(ctx, sub); err != nil {
		return err
	}
	s.logger.Info("push subscription saved",
		zap.String("username", sub.Username),
	)
	return nil
}

// Unsubscribe deactivates an endpoint. The row is kept for bookkeeping.
func (s *Service) Unsubscribe(ctx context.Context, endpoint string) error {
	return s.subs.DeactivateSubscription(ctx, endpoint)
}

// Notify queues a notification to every active subscription of a user.
// A full queue drops the notification; push delivery is best-effort.
func (s *Service) Notify(ctx context.Context, username string, n Notification) error {
	subs, err := s.subs.ListActiveSubscriptions(ctx, username)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if err := s.dispatcher.Enqueue(delivery{target: sub, payload: payload}); err != nil {
			s.logger.Warn("push delivery dropped",
				zap.String("username", username),
				zap.Error(err),
			)
		}
	}
	return nil
}
