package controllers

import (
	"net/http"
	"strings"

	"github.com/roomly-app/push-backend/api/responses"
	"github.com/roomly-app/push-backend/api/validators"
	"github.com/roomly-app/push-backend/internal/delivery"
	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/logger"
	"github.com/roomly-app/push-backend/pkg/pagination"
)

type deliveryListResponse struct {
	Items  any    `json:"items"`
	Cursor string `json:"cursor"`
}

// ListDeliveries returns the caller's push delivery history, newest first.
func ListDeliveries(repo delivery.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery repository unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := delivery.ListParams{UserID: userID, Limit: limit}
		if raw := strings.TrimSpace(r.URL.Query().Get("cursor")); raw != "" {
			cursor, err := pagination.ParseCursor(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor"))
				return
			}
			params.Cursor = cursor
		}

		records, next, err := repo.ListByUser(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list deliveries"))
			return
		}

		resp := deliveryListResponse{Items: records}
		if next != nil {
			resp.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}
