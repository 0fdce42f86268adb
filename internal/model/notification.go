package model

import (
	"fmt"
	"time"
)

// NotificationKind identifies a notification variant.
type NotificationKind string

// Notification kinds
const (
	KindInspectionDue     NotificationKind = "inspection_reminder"
	KindMaintenanceDue    NotificationKind = "maintenance_alert"
	KindLowStock          NotificationKind = "low_stock_alert"
	KindSubscriptionAlert NotificationKind = "subscription_alert"
	KindTest              NotificationKind = "test"
	KindCustom            NotificationKind = "custom"
)

// Default envelope assets used when a variant does not set its own.
const (
	DefaultIcon  = "/icon-192x192.png"
	DefaultBadge = "/badge-72x72.png"
)

// PushPayload is the JSON envelope the service worker receives.
type PushPayload struct {
	Title              string         `json:"title"`
	Body               string         `json:"body"`
	Icon               string         `json:"icon,omitempty"`
	Badge              string         `json:"badge,omitempty"`
	Data               map[string]any `json:"data"`
	Tag                string         `json:"tag,omitempty"`
	RequireInteraction bool           `json:"requireInteraction"`
}

// WithDefaults fills icon, badge and data when unset.
func (p PushPayload) WithDefaults() PushPayload {
	if p.Icon == "" {
		p.Icon = DefaultIcon
	}
	if p.Badge == "" {
		p.Badge = DefaultBadge
	}
	if p.Data == nil {
		p.Data = map[string]any{}
	}
	return p
}

// Notification is the closed set of things this service delivers.
// Each variant carries only its own fields and renders its envelope at the
// channel boundary.
type Notification interface {
	Kind() NotificationKind
	Envelope() PushPayload
	isNotification()
}

// InspectionDue reminds about an upcoming extinguisher inspection.
type InspectionDue struct {
	AssetID      string
	Location     string
	Building     string
	DueDate      time.Time
	DaysUntilDue int
}

func (InspectionDue) Kind() NotificationKind { return KindInspectionDue }
func (InspectionDue) isNotification()        {}

func (n InspectionDue) Envelope() PushPayload {
	return PushPayload{
		Title: "🔥 Inspection Reminder",
		Body:  fmt.Sprintf("%s - %s inspection due in %s", n.Building, n.Location, dayCount(n.DaysUntilDue)),
		Data: map[string]any{
			"type":           string(KindInspectionDue),
			"extinguisherId": n.AssetID,
			"url":            "/extinguishers/" + n.AssetID,
		},
		Tag:                "inspection-" + n.AssetID,
		RequireInteraction: true,
	}.WithDefaults()
}

// MaintenanceDue reminds about upcoming extinguisher maintenance.
type MaintenanceDue struct {
	AssetID      string
	Location     string
	Building     string
	DueDate      time.Time
	DaysUntilDue int
}

func (MaintenanceDue) Kind() NotificationKind { return KindMaintenanceDue }
func (MaintenanceDue) isNotification()        {}

func (n MaintenanceDue) Envelope() PushPayload {
	return PushPayload{
		Title: "🔧 Maintenance Due",
		Body:  fmt.Sprintf("%s - %s maintenance due in %s", n.Building, n.Location, dayCount(n.DaysUntilDue)),
		Data: map[string]any{
			"type":           string(KindMaintenanceDue),
			"extinguisherId": n.AssetID,
			"url":            "/extinguishers/" + n.AssetID,
		},
		Tag:                "maintenance-" + n.AssetID,
		RequireInteraction: true,
	}.WithDefaults()
}

// LowStockAlert is a tenant-wide inventory alert.
type LowStockAlert struct {
	PartName        string
	QuantityInStock int
	MinStockLevel   int
}

func (LowStockAlert) Kind() NotificationKind { return KindLowStock }
func (LowStockAlert) isNotification()        {}

func (n LowStockAlert) Envelope() PushPayload {
	return PushPayload{
		Title: "📦 Low Stock Alert",
		Body:  fmt.Sprintf("%s: %d units remaining (min: %d)", n.PartName, n.QuantityInStock, n.MinStockLevel),
		Data: map[string]any{
			"type":     string(KindLowStock),
			"partName": n.PartName,
			"url":      "/inventory",
		},
		Tag: "low-stock",
	}.WithDefaults()
}

// Alert severities for SubscriptionAlert.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityInfo, SeverityWarning, SeverityError:
		return true
	}
	return false
}

// SubscriptionAlert tells a user about a billing/plan event.
type SubscriptionAlert struct {
	Message  string
	Severity Severity
}

func (SubscriptionAlert) Kind() NotificationKind { return KindSubscriptionAlert }
func (SubscriptionAlert) isNotification()        {}

func (n SubscriptionAlert) Envelope() PushPayload {
	icon := "ℹ️"
	switch n.Severity {
	case SeverityWarning:
		icon = "⚠️"
	case SeverityError:
		icon = "❌"
	}
	return PushPayload{
		Title: icon + " Subscription Alert",
		Body:  n.Message,
		Data: map[string]any{
			"type": string(KindSubscriptionAlert),
			"url":  "/billing",
		},
		Tag:                "subscription",
		RequireInteraction: n.Severity != SeverityInfo,
	}.WithDefaults()
}

// TestNotification is sent by the "send test" endpoint.
type TestNotification struct {
	SentAt time.Time
}

func (TestNotification) Kind() NotificationKind { return KindTest }
func (TestNotification) isNotification()        {}

func (n TestNotification) Envelope() PushPayload {
	return PushPayload{
		Title: "🔔 Test Notification",
		Body:  "Push notifications are working correctly!",
		Data: map[string]any{
			"type":      string(KindTest),
			"timestamp": n.SentAt.UTC().Format(time.RFC3339),
		},
		Tag: "test",
	}.WithDefaults()
}

// CustomNotification carries a caller-supplied envelope.
type CustomNotification struct {
	Payload PushPayload
}

func (CustomNotification) Kind() NotificationKind { return KindCustom }
func (CustomNotification) isNotification()        {}

func (n CustomNotification) Envelope() PushPayload {
	return n.Payload.WithDefaults()
}

func dayCount(days int) string {
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
