package service

import (
	"context"
	"sync"
	"time"

	"firesafety_reminders/internal/model"
)

// =============================================================================
// MOCK REPOSITORY
// =============================================================================
//
// The dispatcher sends concurrently, so every recorded call is guarded by mu.

type mockSubscriptionRepository struct {
	upsertFn       func(ctx context.Context, sub *model.PushSubscription) error
	deleteFn       func(ctx context.Context, userID, endpoint string) (bool, error)
	deleteByIDFn   func(ctx context.Context, id string) error
	listByUserFn   func(ctx context.Context, userID string) ([]model.PushSubscription, error)
	listByTenantFn func(ctx context.Context, tenantID string) ([]model.PushSubscription, error)
	touchFn        func(ctx context.Context, id string, at time.Time) error

	mu          sync.Mutex
	upserted    []model.PushSubscription
	deletedIDs  []string
	touchedIDs  []string
	listCalls   int
	deleteCalls int
}

func (m *mockSubscriptionRepository) UpsertByEndpoint(ctx context.Context, sub *model.PushSubscription) error {
	m.mu.Lock()
	m.upserted = append(m.upserted, *sub)
	m.mu.Unlock()
	if m.upsertFn != nil {
		return m.upsertFn(ctx, sub)
	}
	if sub.ID == "" {
		sub.ID = "sub-1"
	}
	sub.CreatedAt = sub.LastUsed
	return nil
}

func (m *mockSubscriptionRepository) DeleteByUserEndpoint(ctx context.Context, userID, endpoint string) (bool, error) {
	m.mu.Lock()
	m.deleteCalls++
	m.mu.Unlock()
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, endpoint)
	}
	return false, nil
}

func (m *mockSubscriptionRepository) DeleteByID(ctx context.Context, id string) error {
	m.mu.Lock()
	m.deletedIDs = append(m.deletedIDs, id)
	m.mu.Unlock()
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]model.PushSubscription, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) ListByTenant(ctx context.Context, tenantID string) ([]model.PushSubscription, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	if m.listByTenantFn != nil {
		return m.listByTenantFn(ctx, tenantID)
	}
	return nil, nil
}

func (m *mockSubscriptionRepository) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	m.touchedIDs = append(m.touchedIDs, id)
	m.mu.Unlock()
	if m.touchFn != nil {
		return m.touchFn(ctx, id, at)
	}
	return nil
}

// =============================================================================
// MOCK PUSH CHANNEL
// =============================================================================

type mockPush struct {
	disabled bool
	sendFn   func(sub model.PushSubscription, n model.Notification) model.DeliveryOutcome

	mu    sync.Mutex
	sends []model.PushSubscription
}

func (m *mockPush) IsConfigured() bool { return !m.disabled }

func (m *mockPush) Send(ctx context.Context, sub model.PushSubscription, n model.Notification) model.DeliveryOutcome {
	m.mu.Lock()
	m.sends = append(m.sends, sub)
	m.mu.Unlock()
	if m.sendFn != nil {
		return m.sendFn(sub, n)
	}
	return model.DeliveryOutcome{Channel: model.ChannelPush, Success: true, StatusCode: 201}
}

func (m *mockPush) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sends)
}

func subscriptionsFor(userID string, endpoints ...string) []model.PushSubscription {
	subs := make([]model.PushSubscription, 0, len(endpoints))
	for i, ep := range endpoints {
		subs = append(subs, model.PushSubscription{
			ID:       userID + "-sub-" + string(rune('a'+i)),
			UserID:   userID,
			TenantID: "tenant-1",
			Endpoint: ep,
			P256dh:   "p256dh",
			Auth:     "auth",
		})
	}
	return subs
}
