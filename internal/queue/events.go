package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"firesafety_reminders/internal/model"
)

// Event types for the alerts stream
const (
	EventLowStock          = "low_stock"
	EventSubscriptionAlert = "subscription_alert"
)

// Stream names
const (
	StreamAlerts = "stream:alerts"
)

// Consumer group name for alert workers
const (
	ConsumerGroupAlerts = "alert_workers"
)

// AlertEvent is an out-of-band alert published to the alerts stream.
type AlertEvent struct {
	Type      string `json:"type"`      // EventLowStock, EventSubscriptionAlert
	Timestamp int64  `json:"timestamp"` // Unix timestamp when event occurred

	// Low stock (tenant-wide)
	TenantID        string `json:"tenant_id,omitempty"`
	PartName        string `json:"part_name,omitempty"`
	QuantityInStock int    `json:"quantity_in_stock,omitempty"`
	MinStockLevel   int    `json:"min_stock_level,omitempty"`

	// Subscription alert (single user)
	UserID   string         `json:"user_id,omitempty"`
	Message  string         `json:"message,omitempty"`
	Severity model.Severity `json:"severity,omitempty"`
}

// NewLowStockEvent creates an event that alerts every device of a tenant.
func NewLowStockEvent(tenantID, partName string, quantity, minLevel int) AlertEvent {
	return AlertEvent{
		Type:            EventLowStock,
		Timestamp:       time.Now().Unix(),
		TenantID:        tenantID,
		PartName:        partName,
		QuantityInStock: quantity,
		MinStockLevel:   minLevel,
	}
}

// NewSubscriptionAlertEvent creates an event for a single user's devices.
// An empty severity defaults to info.
func NewSubscriptionAlertEvent(userID, message string, severity model.Severity) AlertEvent {
	if severity == "" {
		severity = model.SeverityInfo
	}
	return AlertEvent{
		Type:      EventSubscriptionAlert,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Message:   message,
		Severity:  severity,
	}
}

// Validate checks that the event carries the fields its type needs.
func (e AlertEvent) Validate() error {
	switch e.Type {
	case EventLowStock:
		if e.TenantID == "" || e.PartName == "" {
			return fmt.Errorf("low_stock requires tenant_id and part_name")
		}
	case EventSubscriptionAlert:
		if e.UserID == "" || e.Message == "" {
			return fmt.Errorf("subscription_alert requires user_id and message")
		}
		if e.Severity != "" && !e.Severity.Valid() {
			return fmt.Errorf("invalid severity %q", e.Severity)
		}
	default:
		return fmt.Errorf("%w: %q", model.ErrUnknownEventType, e.Type)
	}
	return nil
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e AlertEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseAlertEvent parses an AlertEvent from Redis stream message values.
func ParseAlertEvent(values map[string]interface{}) (AlertEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return AlertEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event AlertEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return AlertEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
