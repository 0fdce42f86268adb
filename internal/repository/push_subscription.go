package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"firesafety_reminders/internal/model"
)

const subscriptionColumns = `id, user_id, tenant_id, endpoint, p256dh, auth, device_name, created_at, last_used`

type pushSubscriptionRepository struct {
	db *sqlx.DB
}

func NewPushSubscriptionRepository(db *sqlx.DB) PushSubscriptionRepository {
	return &pushSubscriptionRepository{db: db}
}

// UpsertByEndpoint creates or updates a subscription keyed by endpoint.
// A browser that resubscribes keeps its original id and created_at.
func (r *pushSubscriptionRepository) UpsertByEndpoint(ctx context.Context, sub *model.PushSubscription) error {
	now := sub.LastUsed
	if now.IsZero() {
		now = time.Now().UTC()
	}
	id := sub.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
		INSERT INTO push_subscriptions (id, user_id, tenant_id, endpoint, p256dh, auth, device_name, created_at, last_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (endpoint) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			tenant_id = EXCLUDED.tenant_id,
			p256dh = EXCLUDED.p256dh,
			auth = EXCLUDED.auth,
			device_name = COALESCE(EXCLUDED.device_name, push_subscriptions.device_name),
			last_used = EXCLUDED.last_used
		RETURNING ` + subscriptionColumns

	var stored model.PushSubscription
	err := r.db.GetContext(ctx, &stored, query,
		id, sub.UserID, sub.TenantID, sub.Endpoint, sub.P256dh, sub.Auth, sub.DeviceName, now)
	if err != nil {
		return fmt.Errorf("upsert push subscription: %w", err)
	}
	*sub = stored
	return nil
}

// DeleteByUserEndpoint removes a subscription by endpoint URL when it belongs to userID.
func (r *pushSubscriptionRepository) DeleteByUserEndpoint(ctx context.Context, userID, endpoint string) (bool, error) {
	query := `DELETE FROM push_subscriptions WHERE endpoint = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, endpoint, userID)
	if err != nil {
		return false, fmt.Errorf("delete push subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete push subscription rows affected: %w", err)
	}
	return n > 0, nil
}

// DeleteByID removes a subscription by primary key. Missing rows are not an error.
func (r *pushSubscriptionRepository) DeleteByID(ctx context.Context, id string) error {
	query := `DELETE FROM push_subscriptions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete push subscription %s: %w", id, err)
	}
	return nil
}

// ListByUser returns all subscriptions for a user.
func (r *pushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM push_subscriptions
		WHERE user_id = $1
		ORDER BY last_used DESC`
	var subs []model.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, fmt.Errorf("list push subscriptions by user: %w", err)
	}
	return subs, nil
}

// ListByTenant returns all subscriptions under a tenant.
func (r *pushSubscriptionRepository) ListByTenant(ctx context.Context, tenantID string) ([]model.PushSubscription, error) {
	query := `SELECT ` + subscriptionColumns + `
		FROM push_subscriptions
		WHERE tenant_id = $1`
	var subs []model.PushSubscription
	if err := r.db.SelectContext(ctx, &subs, query, tenantID); err != nil {
		return nil, fmt.Errorf("list push subscriptions by tenant: %w", err)
	}
	return subs, nil
}

// TouchLastUsed sets last_used on one row.
func (r *pushSubscriptionRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE push_subscriptions SET last_used = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("touch push subscription: %w", err)
	}
	return nil
}
