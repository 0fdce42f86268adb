package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"firesafety_reminders/internal/model"
	"firesafety_reminders/internal/repository"
)

// NotificationService backs the /notifications endpoints: subscription
// management for the calling user plus test and custom sends.
type NotificationService struct {
	subs       repository.PushSubscriptionRepository
	dispatcher *Dispatcher
	push       *PushSender
	log        *zap.Logger
	now        func() time.Time
}

func NewNotificationService(
	subs repository.PushSubscriptionRepository,
	dispatcher *Dispatcher,
	push *PushSender,
	log *zap.Logger,
) *NotificationService {
	return &NotificationService{
		subs:       subs,
		dispatcher: dispatcher,
		push:       push,
		log:        log.Named("notifications"),
		now:        time.Now,
	}
}

// PublicKey returns the VAPID public key browsers subscribe with.
func (s *NotificationService) PublicKey() (string, error) {
	if !s.push.IsConfigured() {
		return "", model.ErrPushNotConfigured
	}
	return s.push.PublicKey(), nil
}

// Subscribe stores or refreshes a browser subscription for the caller.
//
// The endpoint is unique, so a browser that resubscribes updates its row in
// place, and an endpoint that changed hands (shared machine) moves to the
// current user.
func (s *NotificationService) Subscribe(ctx context.Context, user model.AuthUser, req model.SubscribeRequest) (*model.SubscriptionView, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var deviceName *string
	if req.DeviceName != nil {
		if name := strings.TrimSpace(*req.DeviceName); name != "" {
			deviceName = &name
		}
	}

	sub := &model.PushSubscription{
		UserID:     user.ID,
		TenantID:   user.TenantID,
		Endpoint:   req.Endpoint,
		P256dh:     req.Keys.P256dh,
		Auth:       req.Keys.Auth,
		DeviceName: deviceName,
		LastUsed:   s.now().UTC(),
	}
	if err := s.subs.UpsertByEndpoint(ctx, sub); err != nil {
		return nil, err
	}

	s.log.Info("Push subscription saved",
		zap.String("user_id", user.ID),
		zap.String("subscription_id", sub.ID),
		zap.String("endpoint", sub.ShortEndpoint()),
	)
	view := sub.View()
	return &view, nil
}

// Unsubscribe removes the caller's subscription for endpoint. Unknown endpoints
// and endpoints owned by someone else succeed without deleting anything.
func (s *NotificationService) Unsubscribe(ctx context.Context, user model.AuthUser, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return model.ErrInvalidSubscription
	}

	deleted, err := s.subs.DeleteByUserEndpoint(ctx, user.ID, endpoint)
	if err != nil {
		return err
	}
	if deleted {
		s.log.Info("Push subscription removed", zap.String("user_id", user.ID))
	}
	return nil
}

// ListSubscriptions returns the caller's devices, most recently used first.
func (s *NotificationService) ListSubscriptions(ctx context.Context, userID string) ([]model.SubscriptionView, error) {
	subs, err := s.subs.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]model.SubscriptionView, 0, len(subs))
	for _, sub := range subs {
		views = append(views, sub.View())
	}
	return views, nil
}

// SendTest pushes the fixed test notification to all of the caller's devices.
func (s *NotificationService) SendTest(ctx context.Context, userID string) (model.SendResult, error) {
	if !s.dispatcher.PushEnabled() {
		return model.SendResult{}, model.ErrPushNotConfigured
	}
	return s.dispatcher.SendToUser(ctx, userID, model.TestNotification{SentAt: s.now()})
}

// SendCustom pushes a caller-supplied envelope to all of the caller's devices.
func (s *NotificationService) SendCustom(ctx context.Context, userID string, payload model.PushPayload) (model.SendResult, error) {
	if !s.dispatcher.PushEnabled() {
		return model.SendResult{}, model.ErrPushNotConfigured
	}
	if strings.TrimSpace(payload.Title) == "" || strings.TrimSpace(payload.Body) == "" {
		return model.SendResult{}, model.ErrInvalidPayload
	}
	return s.dispatcher.SendToUser(ctx, userID, model.CustomNotification{Payload: payload})
}
