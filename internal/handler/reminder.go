package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"firesafety_reminders/internal/httputil"
	"firesafety_reminders/internal/model"
	"firesafety_reminders/internal/scheduler"
	"firesafety_reminders/internal/transport/http/middleware"
)

// ReminderTrigger runs a reminder check on demand.
// *scheduler.ReminderScheduler implements it.
type ReminderTrigger interface {
	TriggerInspectionRemindersNow(ctx context.Context) (*scheduler.TickSummary, error)
	TriggerMaintenanceRemindersNow(ctx context.Context) (*scheduler.TickSummary, error)
}

type ReminderHandler struct {
	reminders ReminderTrigger
	log       *zap.Logger
}

func NewReminderHandler(reminders ReminderTrigger, log *zap.Logger) *ReminderHandler {
	return &ReminderHandler{reminders: reminders, log: log.Named("reminder_handler")}
}

// TriggerInspection handles POST /admin/reminders/inspection
func (h *ReminderHandler) TriggerInspection(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, model.DeadlineInspection, h.reminders.TriggerInspectionRemindersNow)
}

// TriggerMaintenance handles POST /admin/reminders/maintenance
func (h *ReminderHandler) TriggerMaintenance(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, model.DeadlineMaintenance, h.reminders.TriggerMaintenanceRemindersNow)
}

// trigger runs the check synchronously; the summary is the response body.
func (h *ReminderHandler) trigger(
	w http.ResponseWriter,
	r *http.Request,
	kind model.DeadlineKind,
	run func(context.Context) (*scheduler.TickSummary, error),
) {
	user, _ := middleware.GetAuthUserFromContext(r.Context())
	h.log.Info("Reminder check requested",
		zap.Stringer("kind", kind),
		zap.String("user_id", user.ID),
	)

	summary, err := run(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "Reminder check failed")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
