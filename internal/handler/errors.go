package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"firesafety_reminders/internal/httputil"
	"firesafety_reminders/internal/model"
)

// writeServiceError maps domain errors to API errors. Anything unknown is
// logged and reported as a 500 with fallback as the message.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, model.ErrInvalidSubscription):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidSubscription, "Subscription requires endpoint, keys.p256dh and keys.auth")
	case errors.Is(err, model.ErrInvalidPayload):
		httputil.WriteBadRequestWithCode(w, model.CodeInvalidPayload, err.Error())
	case errors.Is(err, model.ErrPushNotConfigured),
		errors.Is(err, model.ErrNoChannelConfigured),
		errors.Is(err, model.ErrQueueNotConfigured):
		httputil.WriteUnavailableWithCode(w, model.CodeChannelDisabled, err.Error())
	case errors.Is(err, model.ErrTickInProgress):
		httputil.WriteConflictWithCode(w, model.CodeTickInProgress, err.Error())
	case errors.Is(err, context.Canceled):
		// client went away
		log.Debug("Request cancelled", zap.Error(err))
	default:
		log.Error(fallback, zap.Error(err))
		httputil.WriteInternalError(w, fallback)
	}
}
