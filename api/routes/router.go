package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roomly-app/push-backend/api/controllers"
	"github.com/roomly-app/push-backend/api/middleware"
	"github.com/roomly-app/push-backend/internal/delivery"
	"github.com/roomly-app/push-backend/internal/dispatch"
	"github.com/roomly-app/push-backend/internal/notify"
	"github.com/roomly-app/push-backend/internal/timezone"
	"github.com/roomly-app/push-backend/internal/tokens"
	"github.com/roomly-app/push-backend/pkg/config"
	"github.com/roomly-app/push-backend/pkg/db"
	"github.com/roomly-app/push-backend/pkg/logger"
	"github.com/roomly-app/push-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient db.Pinger,
	redisClient *redis.Client,
	dispatchService dispatch.Service,
	tokensService tokens.Service,
	notifyService notify.Service,
	timezoneService timezone.Service,
	deliveryRepo delivery.Repository,
	metricsRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	readiness := controllers.ReadinessDeps(dbClient, nil)
	if redisClient != nil {
		readiness = controllers.ReadinessDeps(dbClient, redisClient)
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/devices", func(r chi.Router) {
			r.Post("/", controllers.RegisterDevice(tokensService, logg))
			r.Delete("/", controllers.UnregisterDevice(tokensService, logg))
			r.Get("/", controllers.ListDevices(tokensService, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Post("/dispatch", controllers.DispatchNotification(dispatchService, logg))
			r.Post("/", controllers.CreateNotification(notifyService, logg))
			r.Get("/", controllers.ListNotifications(notifyService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notifyService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notifyService, logg))
		})

		r.Get("/deliveries", controllers.ListDeliveries(deliveryRepo, logg))

		r.Route("/me", func(r chi.Router) {
			r.Put("/timezone", controllers.SetTimezone(timezoneService, logg))
			r.Get("/timezone", controllers.GetTimezone(timezoneService, logg))
		})
	})

	return r
}
