package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"firesafety_reminders/internal/config"
	"firesafety_reminders/internal/model"
)

// PushSender delivers notifications to browser push services using VAPID.
//
// The payload is encrypted per subscription (aes128gcm) by webpush-go, so every
// subscription costs one HTTPS request to its push service. Status handling:
//   - 2xx: delivered
//   - 410 Gone: the subscription no longer exists, caller should delete it
//   - anything else or a network error: transient, keep the subscription
type PushSender struct {
	vapid      config.VAPIDConfig
	ttl        int
	timeout    time.Duration
	httpClient webpush.HTTPClient
	log        *zap.Logger
}

// NewPushSender creates a sender. Missing VAPID keys leave the sender
// disabled; Send then fails every call with ErrPushNotConfigured.
func NewPushSender(vapid config.VAPIDConfig, push config.PushConfig, log *zap.Logger) *PushSender {
	s := &PushSender{
		vapid:      vapid,
		ttl:        push.TTL,
		timeout:    push.Timeout,
		httpClient: &http.Client{},
		log:        log.Named("webpush"),
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}
	if err := vapid.Validate(); err != nil {
		s.log.Warn("Web Push disabled", zap.Error(err))
	}
	return s
}

// WithHTTPClient swaps the client used to reach push services.
func (s *PushSender) WithHTTPClient(c webpush.HTTPClient) *PushSender {
	s.httpClient = c
	return s
}

// IsConfigured reports whether VAPID keys are present.
func (s *PushSender) IsConfigured() bool {
	return s != nil && s.vapid.Validate() == nil
}

// PublicKey returns the application server key browsers subscribe with.
func (s *PushSender) PublicKey() string {
	if s == nil {
		return ""
	}
	return s.vapid.PublicKey
}

// Send pushes one notification to one subscription.
func (s *PushSender) Send(ctx context.Context, sub model.PushSubscription, n model.Notification) model.DeliveryOutcome {
	outcome := model.DeliveryOutcome{
		Channel:      model.ChannelPush,
		RecipientRef: sub.ShortEndpoint(),
	}
	if !s.IsConfigured() {
		outcome.Err = model.ErrPushNotConfigured
		return outcome
	}

	payload, err := json.Marshal(n.Envelope())
	if err != nil {
		outcome.Err = fmt.Errorf("marshal push payload: %w", err)
		return outcome
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.httpClient,
		Subscriber:      strings.TrimPrefix(s.vapid.Subject, "mailto:"),
		VAPIDPublicKey:  s.vapid.PublicKey,
		VAPIDPrivateKey: s.vapid.PrivateKey,
		TTL:             s.ttl,
		Urgency:         urgencyFor(n.Kind()),
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("push timed out after %s: %w", s.timeout, err)
		}
		outcome.Err = err
		return outcome
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	outcome.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		outcome.Success = true
	case resp.StatusCode == http.StatusGone:
		outcome.PermanentFailure = true
		outcome.Err = errors.New("push subscription gone (410)")
	default:
		outcome.Err = fmt.Errorf("push service responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return outcome
}

// urgencyFor maps reminder and alert kinds to the high urgency header.
func urgencyFor(kind model.NotificationKind) webpush.Urgency {
	switch kind {
	case model.KindInspectionDue, model.KindMaintenanceDue, model.KindLowStock, model.KindSubscriptionAlert:
		return webpush.UrgencyHigh
	default:
		return webpush.UrgencyNormal
	}
}
