package model

import "errors"

// Error codes returned in API error bodies
const (
	CodeTokenExpired        = "TOKEN_EXPIRED"
	CodeTokenInvalid        = "TOKEN_INVALID"
	CodeInvalidSubscription = "INVALID_SUBSCRIPTION"
	CodeInvalidPayload      = "INVALID_PAYLOAD"
	CodeChannelDisabled     = "CHANNEL_DISABLED"
	CodeTickInProgress      = "TICK_IN_PROGRESS"
)

var (
	// ErrSubscriptionNotFound is returned when no subscription matches an endpoint or id
	ErrSubscriptionNotFound = errors.New("push subscription not found")

	// ErrInvalidSubscription is returned when a subscribe request lacks endpoint or keys
	ErrInvalidSubscription = errors.New("invalid push subscription")

	// ErrInvalidPayload is returned when a custom notification lacks title or body
	ErrInvalidPayload = errors.New("notification title and body are required")

	// ErrPushNotConfigured is returned when VAPID keys are missing
	ErrPushNotConfigured = errors.New("push channel not configured")

	// ErrEmailNotConfigured is returned when SMTP settings are missing or invalid
	ErrEmailNotConfigured = errors.New("email channel not configured")

	// ErrNoChannelConfigured is returned when a reminder tick has nowhere to deliver
	ErrNoChannelConfigured = errors.New("no delivery channel configured")

	// ErrTickInProgress is returned when a reminder run of the same kind is still running
	ErrTickInProgress = errors.New("reminder tick already in progress")

	// ErrUnknownEventType is returned by the alert worker for unroutable events
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrQueueNotConfigured is returned when alerts are published without Redis
	ErrQueueNotConfigured = errors.New("alert queue not configured")
)
