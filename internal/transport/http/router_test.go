package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"firesafety_reminders/internal/handler"
	"firesafety_reminders/internal/metrics"
	"firesafety_reminders/internal/model"
	"firesafety_reminders/internal/scheduler"
	authmw "firesafety_reminders/internal/transport/http/middleware"
)

const testSecret = "router-secret"

type stubNotifications struct{}

func (stubNotifications) PublicKey() (string, error) { return "BKey", nil }
func (stubNotifications) Subscribe(context.Context, model.AuthUser, model.SubscribeRequest) (*model.SubscriptionView, error) {
	return &model.SubscriptionView{ID: "s1"}, nil
}
func (stubNotifications) Unsubscribe(context.Context, model.AuthUser, string) error { return nil }
func (stubNotifications) ListSubscriptions(context.Context, string) ([]model.SubscriptionView, error) {
	return nil, nil
}
func (stubNotifications) SendTest(context.Context, string) (model.SendResult, error) {
	return model.SendResult{}, nil
}
func (stubNotifications) SendCustom(context.Context, string, model.PushPayload) (model.SendResult, error) {
	return model.SendResult{}, nil
}

type stubReminders struct{}

func (stubReminders) TriggerInspectionRemindersNow(context.Context) (*scheduler.TickSummary, error) {
	return &scheduler.TickSummary{Kind: model.DeadlineInspection}, nil
}
func (stubReminders) TriggerMaintenanceRemindersNow(context.Context) (*scheduler.TickSummary, error) {
	return &scheduler.TickSummary{Kind: model.DeadlineMaintenance}, nil
}

func newTestRouter() http.Handler {
	log := zap.NewNop()
	return NewRouter(RouterConfig{
		NotificationHandler: handler.NewNotificationHandler(stubNotifications{}, log),
		ReminderHandler:     handler.NewReminderHandler(stubReminders{}, log),
		AlertHandler:        handler.NewAlertHandler(nil, log),
		MetricsHandler:      metrics.New().Handler(),
		Logger:              log,
		JWTSecret:           testSecret,
	})
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, authmw.Claims{
		TenantID: "tenant-1",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + s
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		role   string // empty = anonymous
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/health", "", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"public key is public", http.MethodGet, "/notifications/public-key", "", "", http.StatusOK},
		{"subscribe needs auth", http.MethodPost, "/notifications/subscribe", "", `{}`, http.StatusUnauthorized},
		{"subscribe as viewer", http.MethodPost, "/notifications/subscribe", model.RoleViewer, `{"endpoint":"https://x"}`, http.StatusCreated},
		{"list subscriptions", http.MethodGet, "/notifications/subscriptions", model.RoleTechnician, "", http.StatusOK},
		{"trigger needs auth", http.MethodPost, "/admin/reminders/inspection", "", "", http.StatusUnauthorized},
		{"trigger as technician", http.MethodPost, "/admin/reminders/inspection", model.RoleTechnician, "", http.StatusForbidden},
		{"trigger as admin", http.MethodPost, "/admin/reminders/inspection", model.RoleAdmin, "", http.StatusOK},
		{"maintenance as manager", http.MethodPost, "/admin/reminders/maintenance", model.RoleManager, "", http.StatusOK},
		{"alerts without redis", http.MethodPost, "/admin/alerts", model.RoleAdmin, `{"type":"low_stock","part_name":"Hose"}`, http.StatusServiceUnavailable},
		{"unknown route", http.MethodGet, "/nope", "", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.role != "" {
				req.Header.Set("Authorization", bearer(t, tt.role))
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("%s %s = %d, want %d (body %s)", tt.method, tt.path, rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
