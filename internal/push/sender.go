package push

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/journal-desktop/journal-backend/pkg/types"
)

// ErrSubscriptionGone signals that the push endpoint no longer exists and
// the subscription should be deactivated.
var ErrSubscriptionGone = errors.New("push: subscription gone")

// Sender delivers one payload to one subscription endpoint.
type Sender interface {
	Send(ctx context.Context, sub types.Subscription, payload []byte) error
}

// WebPushSender sends Web Push notifications signed with VAPID keys.
type WebPushSender struct {
	subscriber string
	publicKey  string
	privateKey string
	ttlSeconds int
}

// NewWebPushSender creates a sender. subscriber is the contact mailto/URL
// included in the VAPID claims.
func NewWebPushSender(subscriber, publicKey, privateKey string, ttlSeconds int) *WebPushSender {
	if ttlSeconds <= 0 {
		ttlSeconds = 3600
	}
	return &WebPushSender{
		subscriber: subscriber,
		publicKey:  publicKey,
		privateKey: privateKey,
		ttlSeconds: ttlSeconds,
	}
}

func (s *WebPushSender) Send(ctx context.Context, sub types.Subscription, payload []byte) error {
	target := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Auth,
			P256dh: sub.P256dh,
		},
	}
	resp, err := webpush.SendNotificationWithContext(ctx, payload, target, &webpush.Options{
		Subscriber:      s.subscriber,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
		TTL:             s.ttlSeconds,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound, http.StatusGone:
		return ErrSubscriptionGone
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push: endpoint returned %d", resp.StatusCode)
	}
	return nil
}
