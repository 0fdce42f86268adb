package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"firesafety_reminders/internal/metrics"
	"firesafety_reminders/internal/model"
	"firesafety_reminders/internal/repository"
)

// PushDelivery is the channel the dispatcher fans out over.
// *PushSender implements it.
type PushDelivery interface {
	IsConfigured() bool
	Send(ctx context.Context, sub model.PushSubscription, n model.Notification) model.DeliveryOutcome
}

// Dispatcher delivers one notification to every push subscription of a user
// or a tenant.
//
// Per subscription:
//   - success: last_used is refreshed (failures are only logged)
//   - 410 Gone: the subscription is deleted (failures are only logged)
//   - other failures: logged, subscription kept
//
// The returned error is only ever a subscription lookup failure.
type Dispatcher struct {
	subs    repository.PushSubscriptionRepository
	push    PushDelivery
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewDispatcher(
	subs repository.PushSubscriptionRepository,
	push PushDelivery,
	m *metrics.Metrics,
	log *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		subs:    subs,
		push:    push,
		metrics: m,
		log:     log.Named("dispatcher"),
		now:     time.Now,
	}
}

// PushEnabled reports whether the push channel is configured.
func (d *Dispatcher) PushEnabled() bool {
	return d.push != nil && d.push.IsConfigured()
}

// SendToUser pushes n to all of the user's subscriptions.
func (d *Dispatcher) SendToUser(ctx context.Context, userID string, n model.Notification) (model.SendResult, error) {
	if !d.PushEnabled() {
		return model.SendResult{}, nil
	}

	subs, err := d.subs.ListByUser(ctx, userID)
	if err != nil {
		d.log.Error("Failed to load user subscriptions", zap.String("user_id", userID), zap.Error(err))
		return model.SendResult{}, err
	}
	if len(subs) == 0 {
		d.log.Debug("No push subscriptions for user", zap.String("user_id", userID))
		return model.SendResult{}, nil
	}

	result := d.deliver(ctx, subs, n)
	d.log.Info("Push sent to user",
		zap.String("user_id", userID),
		zap.String("kind", string(n.Kind())),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// SendToTenant pushes n to every subscription under the tenant.
func (d *Dispatcher) SendToTenant(ctx context.Context, tenantID string, n model.Notification) (model.SendResult, error) {
	if !d.PushEnabled() {
		return model.SendResult{}, nil
	}

	subs, err := d.subs.ListByTenant(ctx, tenantID)
	if err != nil {
		d.log.Error("Failed to load tenant subscriptions", zap.String("tenant_id", tenantID), zap.Error(err))
		return model.SendResult{}, err
	}
	if len(subs) == 0 {
		return model.SendResult{}, nil
	}

	result := d.deliver(ctx, subs, n)
	d.log.Info("Push sent to tenant",
		zap.String("tenant_id", tenantID),
		zap.String("kind", string(n.Kind())),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// deliver sends to all subscriptions concurrently and waits for every attempt.
func (d *Dispatcher) deliver(ctx context.Context, subs []model.PushSubscription, n model.Notification) model.SendResult {
	var (
		sent   atomic.Int64
		failed atomic.Int64
		wg     sync.WaitGroup
	)

	for _, sub := range subs {
		wg.Add(1)
		go func(sub model.PushSubscription) {
			defer wg.Done()

			outcome := d.push.Send(ctx, sub, n)
			if outcome.Success {
				sent.Add(1)
				d.metrics.Delivery(string(model.ChannelPush), metrics.ResultSent)
				if err := d.subs.TouchLastUsed(ctx, sub.ID, d.now().UTC()); err != nil {
					d.log.Warn("Failed to refresh last_used", zap.String("subscription_id", sub.ID), zap.Error(err))
				}
				return
			}

			failed.Add(1)
			if outcome.PermanentFailure {
				d.metrics.Delivery(string(model.ChannelPush), metrics.ResultExpired)
				d.log.Warn("Removing expired push subscription",
					zap.String("subscription_id", sub.ID),
					zap.String("endpoint", sub.ShortEndpoint()),
				)
				if err := d.subs.DeleteByID(ctx, sub.ID); err != nil {
					d.log.Error("Failed to delete expired subscription", zap.String("subscription_id", sub.ID), zap.Error(err))
					return
				}
				d.metrics.SubscriptionPruned()
				return
			}

			d.metrics.Delivery(string(model.ChannelPush), metrics.ResultFailed)
			d.log.Warn("Push delivery failed",
				zap.String("subscription_id", sub.ID),
				zap.String("endpoint", sub.ShortEndpoint()),
				zap.Int("status", outcome.StatusCode),
				zap.Error(outcome.Err),
			)
		}(sub)
	}

	wg.Wait()
	return model.SendResult{Sent: int(sent.Load()), Failed: int(failed.Load())}
}
