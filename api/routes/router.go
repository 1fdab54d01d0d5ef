package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/vitalflex-backend/api/controllers"
	"github.com/angelmondragon/vitalflex-backend/api/middleware"
	paysvc "github.com/angelmondragon/vitalflex-backend/internal/payments"
	subsvc "github.com/angelmondragon/vitalflex-backend/internal/subscriptions"
	"github.com/angelmondragon/vitalflex-backend/internal/syncer"
	videosvc "github.com/angelmondragon/vitalflex-backend/internal/videos"
	"github.com/angelmondragon/vitalflex-backend/pkg/config"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config        *config.Config
	Logger        *logger.Logger
	DBPinger      controllers.Pinger
	RedisPinger   controllers.Pinger
	Subscriptions subsvc.Service
	Payments      paysvc.Service
	Videos        videosvc.Service
	Engine        *syncer.Engine
	Metrics       prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.DBPinger, deps.RedisPinger))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Catalog and access checks work for anonymous viewers too.
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(deps.Config.JWT, deps.Logger))
			r.Get("/videos", controllers.VideoList(deps.Videos, deps.Logger))
			r.Get("/videos/{videoId}/access", controllers.VideoAccess(deps.Videos, deps.Logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(deps.Config.JWT, deps.Logger))

			r.Route("/subscription", func(r chi.Router) {
				r.Get("/", controllers.SubscriptionFetch(deps.Subscriptions, deps.Logger))
				r.Get("/payments", controllers.SubscriptionPaymentHistory(deps.Subscriptions, deps.Logger))
				r.Post("/cancel", controllers.SubscriptionCancel(deps.Subscriptions, deps.Logger))
				r.Post("/renew", controllers.SubscriptionRenew(deps.Subscriptions, deps.Logger))
			})

			r.Post("/payments", controllers.ProcessPayment(deps.Payments, deps.Logger))

			r.Route("/sync", func(r chi.Router) {
				r.Post("/start", controllers.SyncStart(deps.Engine, deps.Logger))
				r.Post("/stop", controllers.SyncStop(deps.Engine, deps.Logger))
				r.Post("/refresh", controllers.SyncRefresh(deps.Engine, deps.Logger))
				r.Get("/events", controllers.SyncEvents(deps.Engine, deps.Logger))
			})
		})
	})

	return r
}
