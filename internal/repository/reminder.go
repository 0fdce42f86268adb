package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"firesafety_reminders/internal/model"
)

type reminderRepository struct {
	db *sqlx.DB
}

func NewReminderRepository(db *sqlx.DB) ReminderRepository {
	return &reminderRepository{db: db}
}

// ListAssetsDue scans all tenants for Active extinguishers whose deadline of
// the given kind lies in [from, to), then loads the eligible recipients of
// every tenant involved in a single query.
func (r *reminderRepository) ListAssetsDue(ctx context.Context, kind model.DeadlineKind, from, to time.Time) ([]model.DueAsset, error) {
	column, err := kind.Column()
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT e.id, e.location, e.building, e.tenant_id, e.status,
		       e.next_inspection, e.next_maintenance,
		       t.company_name AS "tenant.company_name"
		FROM extinguishers e
		JOIN tenants t ON t.id = e.tenant_id
		WHERE e.status = $1
		  AND e.%[1]s >= $2
		  AND e.%[1]s < $3
		ORDER BY e.%[1]s ASC, e.id ASC
	`, column)

	type assetRow struct {
		model.Extinguisher
		TenantCompanyName string `db:"tenant.company_name"`
	}

	var rows []assetRow
	if err := r.db.SelectContext(ctx, &rows, query, model.AssetStatusActive, from, to); err != nil {
		return nil, fmt.Errorf("list %s assets due: %w", kind, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	tenantIDs := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		if !seen[row.TenantID] {
			seen[row.TenantID] = true
			tenantIDs = append(tenantIDs, row.TenantID)
		}
	}

	recipients, err := r.listRecipients(ctx, tenantIDs)
	if err != nil {
		return nil, err
	}

	due := make([]model.DueAsset, len(rows))
	for i, row := range rows {
		due[i] = model.DueAsset{
			Extinguisher: row.Extinguisher,
			Tenant: model.Tenant{
				ID:          row.TenantID,
				CompanyName: row.TenantCompanyName,
			},
			Recipients: recipients[row.TenantID],
		}
	}
	return due, nil
}

// listRecipients returns active privileged users grouped by tenant.
func (r *reminderRepository) listRecipients(ctx context.Context, tenantIDs []string) (map[string][]model.User, error) {
	query := `
		SELECT id, email, name, tenant_id, role, status
		FROM users
		WHERE tenant_id = ANY($1)
		  AND status = $2
		  AND role = ANY($3)
		ORDER BY tenant_id, id
	`
	var users []model.User
	err := r.db.SelectContext(ctx, &users, query,
		pq.Array(tenantIDs), model.UserStatusActive, pq.Array(model.PrivilegedRoles))
	if err != nil {
		return nil, fmt.Errorf("list reminder recipients: %w", err)
	}

	byTenant := make(map[string][]model.User, len(tenantIDs))
	for _, u := range users {
		byTenant[u.TenantID] = append(byTenant[u.TenantID], u)
	}
	return byTenant, nil
}
