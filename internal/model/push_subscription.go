package model

import (
	"strings"
	"time"
)

// PushSubscription is a browser Web Push registration owned by a user.
// Endpoint is globally unique.
type PushSubscription struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"-"`
	TenantID   string    `db:"tenant_id" json:"-"`
	Endpoint   string    `db:"endpoint" json:"endpoint"`
	P256dh     string    `db:"p256dh" json:"-"` // client ECDH public key
	Auth       string    `db:"auth" json:"-"`   // client auth secret
	DeviceName *string   `db:"device_name" json:"device_name,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastUsed   time.Time `db:"last_used" json:"last_used"`
}

// ShortEndpoint returns a log-safe prefix of the endpoint URL.
func (s PushSubscription) ShortEndpoint() string {
	if len(s.Endpoint) <= 50 {
		return s.Endpoint
	}
	return s.Endpoint[:50] + "..."
}

// SubscriptionKeys are the client key material of a subscription.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// SubscribeRequest is the body of POST /notifications/subscribe.
// The nested Subscription form is what the browser's PushSubscription.toJSON
// produces when wrapped by the web client.
type SubscribeRequest struct {
	Endpoint     string            `json:"endpoint"`
	Keys         SubscriptionKeys  `json:"keys"`
	DeviceName   *string           `json:"deviceName,omitempty"`
	Subscription *SubscribeRequest `json:"subscription,omitempty"`
}

// Normalize flattens the nested form and trims whitespace.
func (r SubscribeRequest) Normalize() SubscribeRequest {
	out := r
	if r.Subscription != nil {
		out.Endpoint = r.Subscription.Endpoint
		out.Keys = r.Subscription.Keys
		if out.DeviceName == nil {
			out.DeviceName = r.Subscription.DeviceName
		}
	}
	out.Subscription = nil
	out.Endpoint = strings.TrimSpace(out.Endpoint)
	out.Keys.P256dh = strings.TrimSpace(out.Keys.P256dh)
	out.Keys.Auth = strings.TrimSpace(out.Keys.Auth)
	return out
}

// Validate checks the fields required to address and encrypt a push message.
func (r SubscribeRequest) Validate() error {
	if r.Endpoint == "" {
		return ErrInvalidSubscription
	}
	if !strings.HasPrefix(r.Endpoint, "https://") && !strings.HasPrefix(r.Endpoint, "http://") {
		return ErrInvalidSubscription
	}
	if r.Keys.P256dh == "" || r.Keys.Auth == "" {
		return ErrInvalidSubscription
	}
	return nil
}

// UnsubscribeRequest is the body of DELETE /notifications/subscribe.
type UnsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

// SubscriptionView is the client-visible part of a stored subscription.
type SubscriptionView struct {
	ID         string    `json:"id"`
	Endpoint   string    `json:"-"`
	DeviceName *string   `json:"deviceName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	LastUsed   time.Time `json:"lastUsed"`
}

// View returns the stable fields exposed over HTTP.
func (s PushSubscription) View() SubscriptionView {
	return SubscriptionView{
		ID:         s.ID,
		Endpoint:   s.Endpoint,
		DeviceName: s.DeviceName,
		CreatedAt:  s.CreatedAt,
		LastUsed:   s.LastUsed,
	}
}
