package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// pushSubscriptionsSchema creates the only table this service owns.
// Tenants, users and extinguishers are managed by the main application.
const pushSubscriptionsSchema = `
CREATE TABLE IF NOT EXISTS push_subscriptions (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	tenant_id   TEXT NOT NULL,
	endpoint    TEXT NOT NULL UNIQUE,
	p256dh      TEXT NOT NULL,
	auth        TEXT NOT NULL,
	device_name TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	last_used   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_push_subscriptions_user_id ON push_subscriptions(user_id);
CREATE INDEX IF NOT EXISTS idx_push_subscriptions_tenant_id ON push_subscriptions(tenant_id);
`

// EnsureSchema creates the push_subscriptions table and its indexes.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, pushSubscriptionsSchema); err != nil {
		return fmt.Errorf("ensure push_subscriptions schema: %w", err)
	}
	return nil
}
