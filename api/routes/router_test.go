package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roomly-app/push-backend/internal/dispatch"
	"github.com/roomly-app/push-backend/internal/notify"
	"github.com/roomly-app/push-backend/internal/timezone"
	"github.com/roomly-app/push-backend/internal/tokens"
	pkgauth "github.com/roomly-app/push-backend/pkg/auth"
	"github.com/roomly-app/push-backend/pkg/config"
	"github.com/roomly-app/push-backend/pkg/db/models"
	"github.com/roomly-app/push-backend/pkg/enums"
	"github.com/roomly-app/push-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubDispatchService struct{}

func (stubDispatchService) Dispatch(context.Context, dispatch.Request) (*dispatch.Result, error) {
	return &dispatch.Result{Success: true}, nil
}

type stubTokensService struct{}

func (stubTokensService) Register(_ context.Context, params tokens.RegisterParams) (*models.PushToken, error) {
	return &models.PushToken{ID: uuid.New(), UserID: params.UserID, Token: params.Token, Platform: params.Platform, IsActive: true}, nil
}

func (stubTokensService) Unregister(context.Context, uuid.UUID, enums.Platform, string) error {
	return nil
}

func (stubTokensService) List(context.Context, uuid.UUID) ([]models.PushToken, error) {
	return nil, nil
}

type stubNotifyService struct{}

func (stubNotifyService) Create(_ context.Context, params notify.CreateParams) (*models.Notification, error) {
	return &models.Notification{ID: uuid.New(), UserID: params.UserID, Type: params.Type}, nil
}

func (stubNotifyService) List(context.Context, notify.ListParams) (*notify.ListResult, error) {
	return &notify.ListResult{}, nil
}

func (stubNotifyService) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (stubNotifyService) MarkAllRead(context.Context, uuid.UUID) (int64, error) { return 0, nil }

type stubTimezoneService struct{}

func (stubTimezoneService) Set(_ context.Context, userID uuid.UUID, name string) (*models.TimezonePreference, error) {
	return &models.TimezonePreference{UserID: userID, Timezone: name}, nil
}

func (stubTimezoneService) Get(_ context.Context, userID uuid.UUID) (*models.TimezonePreference, error) {
	return &models.TimezonePreference{UserID: userID, Timezone: timezone.DefaultTimezone}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "8080"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret-router-test-secret",
			Issuer:            "roomly-test",
			ExpirationMinutes: 15,
		},
	}
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return NewRouter(
		testConfig(),
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		stubPinger{},
		nil, // redis: idempotency middleware passes through without a store
		stubDispatchService{},
		stubTokensService{},
		stubNotifyService{},
		stubTimezoneService{},
		nil,
		prometheus.NewRegistry(),
	)
}

func TestRouterHealthLive(t *testing.T) {
	router := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Roomly-Env") != "test" {
		t.Fatal("env header missing")
	}
}

func TestRouterMetricsExposed(t *testing.T) {
	router := newTestRouter(t)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRouterRejectsUnauthenticated(t *testing.T) {
	router := newTestRouter(t)

	for _, target := range []string{
		"/api/v1/devices",
		"/api/v1/notifications",
		"/api/v1/me/timezone",
	} {
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, target, nil))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", target, resp.Code)
		}
	}
}

func TestRouterDispatchWithBearerToken(t *testing.T) {
	router := newTestRouter(t)

	cfg := testConfig()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	body := `{"userId":"` + uuid.NewString() + `","title":"T","body":"B"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/dispatch", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var payload struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !payload.Success {
		t.Fatalf("unexpected payload %s", resp.Body.String())
	}
}
