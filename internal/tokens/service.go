package tokens

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/roomly-app/push-backend/pkg/db/models"
	"github.com/roomly-app/push-backend/pkg/enums"
	pkgerrors "github.com/roomly-app/push-backend/pkg/errors"
	"github.com/roomly-app/push-backend/pkg/logger"
)

// Service defines push token registration operations.
type Service interface {
	Register(ctx context.Context, params RegisterParams) (*models.PushToken, error)
	Unregister(ctx context.Context, userID uuid.UUID, platform enums.Platform, token string) error
	List(ctx context.Context, userID uuid.UUID) ([]models.PushToken, error)
}

// ServiceParams groups dependencies for the token service.
type ServiceParams struct {
	Repo Repository
	Logg *logger.Logger
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires token registration dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "token repository required")
	}
	if params.Logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: params.Repo, logg: params.Logg}, nil
}

// RegisterParams captures one device registration request.
type RegisterParams struct {
	UserID      uuid.UUID
	Platform    enums.Platform
	Token       string
	DeviceModel *string
	OSVersion   *string
	Timezone    *string
}

// ExpoTokenPrefix is how Expo-minted push tokens start on both platforms.
const ExpoTokenPrefix = "ExponentPushToken["

func (s *service) Register(ctx context.Context, params RegisterParams) (*models.PushToken, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !params.Platform.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "platform must be ios or android")
	}
	token := strings.TrimSpace(params.Token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "push token required")
	}
	if !strings.HasPrefix(token, ExpoTokenPrefix) || !strings.HasSuffix(token, "]") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "push token is not an Expo push token")
	}

	row := &models.PushToken{
		UserID:      params.UserID,
		Platform:    params.Platform,
		Token:       token,
		Provider:    enums.PushProviderExpo,
		DeviceModel: params.DeviceModel,
		OSVersion:   params.OSVersion,
		Timezone:    params.Timezone,
		IsActive:    true,
	}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert push token")
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":  params.UserID.String(),
		"platform": string(params.Platform),
	})
	s.logg.Info(logCtx, "push token registered")
	return row, nil
}

func (s *service) Unregister(ctx context.Context, userID uuid.UUID, platform enums.Platform, token string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !platform.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "platform must be ios or android")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "push token required")
	}

	found, err := s.repo.Deactivate(ctx, userID, platform, token)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate push token")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "push token not found")
	}
	return nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]models.PushToken, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	rows, err := s.repo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list push tokens")
	}
	return rows, nil
}
