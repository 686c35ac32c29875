package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dcortes/shopline-backend/api/controllers"
	cartcontrollers "github.com/dcortes/shopline-backend/api/controllers/cart"
	"github.com/dcortes/shopline-backend/api/middleware"
	cartsvc "github.com/dcortes/shopline-backend/internal/cart"
	"github.com/dcortes/shopline-backend/pkg/config"
	"github.com/dcortes/shopline-backend/pkg/logger"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisP controllers.Pinger,
	cartService cartsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Owner(logg))
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Delete("/", cartcontrollers.CartClear(cartService, logg))
			r.Get("/quote", cartcontrollers.CartQuote(cartService, logg))
			r.Post("/items", cartcontrollers.CartItemUpsert(cartService, logg))
			r.Put("/items/{productID}", cartcontrollers.CartItemSetQuantity(cartService, logg))
			r.Delete("/items/{productID}", cartcontrollers.CartItemRemove(cartService, logg))
		})

		// Login-time merge is service-to-service; it names both identities
		// in the body instead of using the owner headers.
		r.Post("/merge", cartcontrollers.CartMerge(cartService, logg))
	})

	return r
}
