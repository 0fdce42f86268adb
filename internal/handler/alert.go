package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"firesafety_reminders/internal/httputil"
	"firesafety_reminders/internal/model"
	"firesafety_reminders/internal/queue"
	"firesafety_reminders/internal/transport/http/middleware"
)

type AlertHandler struct {
	publisher queue.Publisher // nil when REDIS_URL is unset
	log       *zap.Logger
	now       func() time.Time
}

func NewAlertHandler(publisher queue.Publisher, log *zap.Logger) *AlertHandler {
	return &AlertHandler{
		publisher: publisher,
		log:       log.Named("alert_handler"),
		now:       time.Now,
	}
}

// Publish handles POST /admin/alerts
// Low stock alerts are scoped to the caller's tenant; a tenant_id in the
// body is ignored.
func (h *AlertHandler) Publish(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetAuthUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}
	if h.publisher == nil {
		writeServiceError(w, h.log, model.ErrQueueNotConfigured, "")
		return
	}

	var event queue.AlertEvent
	if err := httputil.DecodeJSON(r, &event); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	if event.Type == queue.EventLowStock {
		event.TenantID = user.TenantID
	}
	if event.Type == queue.EventSubscriptionAlert && event.Severity == "" {
		event.Severity = model.SeverityInfo
	}
	if err := event.Validate(); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	event.Timestamp = h.now().Unix()

	id, err := h.publisher.Publish(r.Context(), queue.StreamAlerts, event)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to publish alert")
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

