package responses

import (
	"context"
	"net/http"

	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/logger"
)

// dispatchErrorEnvelope is the failure shape the mobile client expects from
// the dispatch endpoint: a bare {success:false, error} object, not the
// standard envelope.
type dispatchErrorEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// WriteDispatchResult writes a dispatch outcome verbatim. The payload already
// carries its own success flag, so a partial failure is still a 200.
func WriteDispatchResult(w http.ResponseWriter, result any) {
	writeJSON(w, http.StatusOK, result)
}

// WriteDispatchError maps validation failures to 400 and everything else to
// 500, both in the dispatch endpoint's own error shape.
func WriteDispatchError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	if typed := pkgerrors.As(err); typed != nil {
		switch typed.Code() {
		case pkgerrors.CodeValidation:
			status = http.StatusBadRequest
			msg = typed.Message()
		case pkgerrors.CodeUnauthorized:
			status = http.StatusUnauthorized
			msg = typed.Message()
		}
	}

	if logg != nil && err != nil {
		logg.Error(ctx, "dispatch.error", err)
	}

	writeJSON(w, status, dispatchErrorEnvelope{Success: false, Error: msg})
}
