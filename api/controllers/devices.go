package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/api/middleware"
	"github.com/roomly-app/push-backend/api/responses"
	"github.com/roomly-app/push-backend/api/validators"
	"github.com/roomly-app/push-backend/internal/tokens"
	"github.com/roomly-app/push-backend/pkg/enums"
	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/logger"
)

type registerDeviceRequest struct {
	Token       string  `json:"token" validate:"required"`
	Platform    string  `json:"platform" validate:"required,oneof=ios android"`
	DeviceModel *string `json:"deviceModel,omitempty"`
	OSVersion   *string `json:"osVersion,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
}

type unregisterDeviceRequest struct {
	Token    string `json:"token" validate:"required"`
	Platform string `json:"platform" validate:"required,oneof=ios android"`
}

// RegisterDevice upserts a push token for the caller's device.
func RegisterDevice(svc tokens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tokens service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body registerDeviceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		token, err := svc.Register(r.Context(), tokens.RegisterParams{
			UserID:      userID,
			Platform:    enums.Platform(body.Platform),
			Token:       body.Token,
			DeviceModel: body.DeviceModel,
			OSVersion:   body.OSVersion,
			Timezone:    body.Timezone,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, token)
	}
}

// UnregisterDevice deactivates the caller's push token.
func UnregisterDevice(svc tokens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tokens service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body unregisterDeviceRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unregister(r.Context(), userID, enums.Platform(body.Platform), body.Token); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deactivated": true})
	}
}

// ListDevices returns the caller's active push tokens.
func ListDevices(svc tokens.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tokens service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user context")
	}
	return id, nil
}
