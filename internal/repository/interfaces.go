package repository

import (
	"context"
	"time"

	"firesafety_reminders/internal/model"
)

type PushSubscriptionRepository interface {
	// UpsertByEndpoint inserts the subscription or, when the endpoint is already
	// on file, updates owner, keys, device name and last_used in place.
	// sub is overwritten with the stored row.
	UpsertByEndpoint(ctx context.Context, sub *model.PushSubscription) error
	// DeleteByUserEndpoint removes userID's subscription for endpoint;
	// deleted=false if none matched, including endpoints owned by other users
	DeleteByUserEndpoint(ctx context.Context, userID, endpoint string) (deleted bool, err error)
	// DeleteByID removes a subscription the push service reported as gone
	DeleteByID(ctx context.Context, id string) error
	// ListByUser returns a user's subscriptions, most recently used first
	ListByUser(ctx context.Context, userID string) ([]model.PushSubscription, error)
	// ListByTenant returns every subscription under a tenant
	ListByTenant(ctx context.Context, tenantID string) ([]model.PushSubscription, error)
	// TouchLastUsed refreshes last_used after a successful send
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

type ReminderRepository interface {
	// ListAssetsDue returns Active extinguishers whose kind deadline falls in
	// [from, to), each with its tenant and the tenant's eligible recipients.
	ListAssetsDue(ctx context.Context, kind model.DeadlineKind, from, to time.Time) ([]model.DueAsset, error)
}
