package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"firesafety_reminders/internal/handler"
	"firesafety_reminders/internal/httputil"
	"firesafety_reminders/internal/logger"
	"firesafety_reminders/internal/model"
	authmw "firesafety_reminders/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	NotificationHandler *handler.NotificationHandler
	ReminderHandler     *handler.ReminderHandler
	AlertHandler        *handler.AlertHandler
	MetricsHandler      http.Handler
	Logger              *zap.Logger
	JWTSecret           string
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logger.Middleware(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/notifications", func(r chi.Router) {
		// Public: browsers fetch the key before the user is known
		r.Get("/public-key", cfg.NotificationHandler.PublicKey)

		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

			r.Post("/subscribe", cfg.NotificationHandler.Subscribe)
			r.Delete("/subscribe", cfg.NotificationHandler.Unsubscribe)
			r.Get("/subscriptions", cfg.NotificationHandler.ListSubscriptions)
			r.Post("/test", cfg.NotificationHandler.SendTest)
			r.Post("/send", cfg.NotificationHandler.SendCustom)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))
		r.Use(authmw.RequireRole(model.PrivilegedRoles...))

		r.Post("/reminders/inspection", cfg.ReminderHandler.TriggerInspection)
		r.Post("/reminders/maintenance", cfg.ReminderHandler.TriggerMaintenance)
		r.Post("/alerts", cfg.AlertHandler.Publish)
	})

	return r
}
