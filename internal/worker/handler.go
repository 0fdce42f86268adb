package worker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"firesafety_reminders/internal/model"
	"firesafety_reminders/internal/queue"
)

// AlertDispatcher delivers a notification to a user's or a tenant's devices.
// *service.Dispatcher implements it.
type AlertDispatcher interface {
	SendToUser(ctx context.Context, userID string, n model.Notification) (model.SendResult, error)
	SendToTenant(ctx context.Context, tenantID string, n model.Notification) (model.SendResult, error)
}

// Handler processes alert events from the queue.
type Handler struct {
	dispatcher AlertDispatcher
	log        *zap.Logger
}

// NewHandler creates a new event handler.
func NewHandler(dispatcher AlertDispatcher, log *zap.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, log: log.Named("alerts")}
}

// HandleEvent routes an event to the appropriate handler based on type.
func (h *Handler) HandleEvent(ctx context.Context, event queue.AlertEvent) error {
	startTime := time.Now()

	var (
		result model.SendResult
		err    error
	)
	switch event.Type {
	case queue.EventLowStock:
		result, err = h.handleLowStock(ctx, event)
	case queue.EventSubscriptionAlert:
		result, err = h.handleSubscriptionAlert(ctx, event)
	default:
		return fmt.Errorf("%w: %q", model.ErrUnknownEventType, event.Type)
	}

	if err != nil {
		h.log.Warn("Alert failed",
			zap.String("type", event.Type),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err),
		)
		return err
	}

	h.log.Info("Alert delivered",
		zap.String("type", event.Type),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", time.Since(startTime)),
	)
	return nil
}

func (h *Handler) handleLowStock(ctx context.Context, event queue.AlertEvent) (model.SendResult, error) {
	if event.TenantID == "" {
		return model.SendResult{}, fmt.Errorf("low_stock: missing tenant_id")
	}
	result, err := h.dispatcher.SendToTenant(ctx, event.TenantID, model.LowStockAlert{
		PartName:        event.PartName,
		QuantityInStock: event.QuantityInStock,
		MinStockLevel:   event.MinStockLevel,
	})
	if err != nil {
		return result, fmt.Errorf("send low stock alert to tenant %s: %w", event.TenantID, err)
	}
	return result, nil
}

func (h *Handler) handleSubscriptionAlert(ctx context.Context, event queue.AlertEvent) (model.SendResult, error) {
	if event.UserID == "" {
		return model.SendResult{}, fmt.Errorf("subscription_alert: missing user_id")
	}
	severity := event.Severity
	if severity == "" {
		severity = model.SeverityInfo
	}
	result, err := h.dispatcher.SendToUser(ctx, event.UserID, model.SubscriptionAlert{
		Message:  event.Message,
		Severity: severity,
	})
	if err != nil {
		return result, fmt.Errorf("send subscription alert to user %s: %w", event.UserID, err)
	}
	return result, nil
}
