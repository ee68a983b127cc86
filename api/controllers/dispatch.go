package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/api/responses"
	"github.com/roomly-app/push-backend/api/validators"
	"github.com/roomly-app/push-backend/internal/dispatch"
	"github.com/roomly-app/push-backend/pkg/enums"
	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/logger"
)

type dispatchRequest struct {
	UserID   *string         `json:"userId,omitempty"`
	UserIDs  []string        `json:"userIds,omitempty"`
	Topic    *string         `json:"topic,omitempty"`
	Type     string          `json:"type,omitempty"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Data     json.RawMessage `json:"data,omitempty"`
	Priority string          `json:"priority,omitempty"`
	Sound    string          `json:"sound,omitempty"`
	Badge    *int            `json:"badge,omitempty"`
}

// DispatchNotification forwards a push request to the provider and returns
// the per-recipient breakdown in the shape the mobile client expects.
func DispatchNotification(svc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteDispatchError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dispatch service unavailable"))
			return
		}

		var body dispatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteDispatchError(r.Context(), logg, w, err)
			return
		}

		req, err := buildDispatchRequest(body)
		if err != nil {
			responses.WriteDispatchError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Dispatch(r.Context(), req)
		if err != nil {
			responses.WriteDispatchError(r.Context(), logg, w, err)
			return
		}
		responses.WriteDispatchResult(w, result)
	}
}

func buildDispatchRequest(body dispatchRequest) (dispatch.Request, error) {
	req := dispatch.Request{
		Type:     enums.NotificationType(body.Type),
		Title:    body.Title,
		Body:     body.Body,
		Data:     body.Data,
		Priority: body.Priority,
		Sound:    body.Sound,
		Badge:    body.Badge,
		Topic:    body.Topic,
	}

	if body.UserID != nil {
		id, err := uuid.Parse(*body.UserID)
		if err != nil {
			return dispatch.Request{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid userId")
		}
		req.UserID = &id
	}

	for _, raw := range body.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return dispatch.Request{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid userIds entry")
		}
		req.UserIDs = append(req.UserIDs, id)
	}

	return req, nil
}
