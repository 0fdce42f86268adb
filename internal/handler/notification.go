package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"firesafety_reminders/internal/httputil"
	"firesafety_reminders/internal/model"
	"firesafety_reminders/internal/transport/http/middleware"
)

// NotificationAPI is the subscription and ad-hoc send surface.
// *service.NotificationService implements it.
type NotificationAPI interface {
	PublicKey() (string, error)
	Subscribe(ctx context.Context, user model.AuthUser, req model.SubscribeRequest) (*model.SubscriptionView, error)
	Unsubscribe(ctx context.Context, user model.AuthUser, endpoint string) error
	ListSubscriptions(ctx context.Context, userID string) ([]model.SubscriptionView, error)
	SendTest(ctx context.Context, userID string) (model.SendResult, error)
	SendCustom(ctx context.Context, userID string, payload model.PushPayload) (model.SendResult, error)
}

type NotificationHandler struct {
	notifService NotificationAPI
	log          *zap.Logger
}

func NewNotificationHandler(notifService NotificationAPI, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		notifService: notifService,
		log:          log.Named("notification_handler"),
	}
}

type sendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
}

// PublicKey handles GET /notifications/public-key
func (h *NotificationHandler) PublicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.notifService.PublicKey()
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get public key")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"publicKey": key})
}

// Subscribe handles POST /notifications/subscribe
// Accepts both the flat PushSubscription JSON and the {subscription, deviceName} wrapper.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetAuthUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.SubscribeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	view, err := h.notifService.Subscribe(r.Context(), user, req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to save subscription")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"success":      true,
		"message":      "Successfully subscribed to push notifications",
		"subscription": view,
	})
}

// Unsubscribe handles DELETE /notifications/subscribe
func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetAuthUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.UnsubscribeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.notifService.Unsubscribe(r.Context(), user, req.Endpoint); err != nil {
		writeServiceError(w, h.log, err, "Failed to remove subscription")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Successfully unsubscribed from push notifications",
	})
}

// ListSubscriptions handles GET /notifications/subscriptions
func (h *NotificationHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetAuthUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	subs, err := h.notifService.ListSubscriptions(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list subscriptions")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"subscriptions": subs})
}

// SendTest handles POST /notifications/test
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetAuthUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	result, err := h.notifService.SendTest(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to send test notification")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, sendResponse{
		Success: true,
		Message: "Test notification sent",
		Sent:    result.Sent,
		Failed:  result.Failed,
	})
}

// SendCustom handles POST /notifications/send
// Sends a caller-supplied notification to the caller's own devices.
func (h *NotificationHandler) SendCustom(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetAuthUserFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var payload model.PushPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.notifService.SendCustom(r.Context(), user.ID, payload)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to send notification")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, sendResponse{
		Success: true,
		Message: "Notification sent",
		Sent:    result.Sent,
		Failed:  result.Failed,
	})
}
