package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const addressLookupsPerMinute = 30

// redisStore is what the rate limit and idempotency middleware need.
type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps are the services the HTTP surface exposes. Gatherer and Ready are
// optional.
type Deps struct {
	Config     *config.Config
	Logger     *logger.Logger
	Redis      redisStore
	Ready      map[string]controllers.Pinger
	Gatherer   prometheus.Gatherer
	Checkout   checkoutsvc.Service
	Cart       cart.Service
	CartOffers controllers.CartOfferService
	Orders     orders.Service
	Addresses  address.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	checkoutLimit := middleware.RateLimitPolicy{
		Name:   "checkout",
		Window: cfg.Checkout.RateLimitWindow,
		Limit:  cfg.Checkout.RateLimitPerWindow,
	}

	addressLimit := middleware.RateLimitPolicy{Name: "address", Window: time.Minute, Limit: addressLookupsPerMinute}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(cfg.JWT, logg))

		r.With(
			middleware.RateLimit(checkoutLimit, deps.Redis, logg),
			middleware.Idempotency(deps.Redis, cfg.Checkout.IdempotencyTTL, false, logg),
		).Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Delete("/", controllers.CartAbandon(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Patch("/items/{itemId}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemId}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Post("/coupon", controllers.CartApplyCoupon(deps.Cart, logg))
			r.Delete("/coupon", controllers.CartRemoveCoupon(deps.Cart, logg))
		})

		r.Route("/cart-offers", func(r chi.Router) {
			r.Get("/resolve", controllers.CartOfferResolve(deps.CartOffers, logg))
			r.With(middleware.Idempotency(deps.Redis, 0, false, logg)).Post("/accept", controllers.CartOfferAccept(deps.CartOffers, logg))
			r.Post("/reject", controllers.CartOfferReject(deps.CartOffers, logg))
		})

		if deps.Addresses != nil {
			r.Route("/addresses", func(r chi.Router) {
				r.Use(middleware.RateLimit(addressLimit, deps.Redis, logg))
				r.Get("/suggest", controllers.AddressSuggest(deps.Addresses, logg))
				r.Get("/places/{placeId}", controllers.AddressResolve(deps.Addresses, logg))
			})
		}

		r.Route("/orders", func(r chi.Router) {
			r.Use(middleware.RequireCustomer(logg))
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderGet(deps.Orders, logg))
		})
	})

	return r
}
