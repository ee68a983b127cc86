package timezone

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/pkg/db/models"
	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/logger"
)

// DefaultTimezone is returned for users who never set a preference.
const DefaultTimezone = "UTC"

// Service manages the per-user timezone preference behind the profile endpoints.
type Service interface {
	Set(ctx context.Context, userID uuid.UUID, name string) (*models.TimezonePreference, error)
	Get(ctx context.Context, userID uuid.UUID) (*models.TimezonePreference, error)
}

// ServiceParams groups timezone dependencies.
type ServiceParams struct {
	Repo Repository
	Logg *logger.Logger
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires timezone dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "timezone repository required")
	}
	if params.Logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: params.Repo, logg: params.Logg}, nil
}

func (s *service) Set(ctx context.Context, userID uuid.UUID, name string) (*models.TimezonePreference, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "timezone required")
	}
	if _, err := time.LoadLocation(name); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown timezone")
	}

	pref := &models.TimezonePreference{
		UserID:   userID,
		Timezone: name,
	}
	if err := s.repo.Upsert(ctx, pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save timezone")
	}

	s.logg.Info(s.logg.WithUserID(ctx, userID.String()), "timezone preference saved")
	return pref, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.TimezonePreference, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	pref, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load timezone")
	}
	if pref == nil {
		return &models.TimezonePreference{UserID: userID, Timezone: DefaultTimezone}, nil
	}
	return pref, nil
}
