package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/routes"
	"github.com/angelmondragon/storefront-backend/internal/address"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/cartoffers"
	checkoutsvc "github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/coupons"
	"github.com/angelmondragon/storefront-backend/internal/customers"
	"github.com/angelmondragon/storefront-backend/internal/ordernumber"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/shipping"
	"github.com/angelmondragon/storefront-backend/internal/tax"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/maps"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/outbox"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

// buildRouterDeps assembles every service the HTTP surface exposes.
func buildRouterDeps(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, reg *prometheus.Registry) (routes.Deps, error) {
	conn := dbClient.DB()
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)

	products := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	customerRepo := customers.NewRepository(conn)
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	couponSvc, err := coupons.NewService(coupons.NewRepository(conn), logg, coupons.WithRejectionObserver(checkoutMetrics))
	if err != nil {
		return routes.Deps{}, err
	}
	customerSvc, err := customers.NewService(dbClient, customerRepo, logg)
	if err != nil {
		return routes.Deps{}, err
	}

	cartSvc, err := cart.NewService(cart.Deps{
		Tx:        dbClient,
		Repo:      cartRepo,
		Products:  products,
		Coupons:   couponSvc,
		Customers: customerSvc,
		Outbox:    events,
		Logger:    logg,
		Currency:  cfg.Checkout.Currency,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	offerSvc, err := cartoffers.NewService(cartoffers.Deps{
		Tx:       dbClient,
		Repo:     cartoffers.NewRepository(conn),
		Carts:    cartRepo,
		Cart:     cartSvc,
		Products: products,
		Outbox:   events,
		Logger:   logg,
	})
	if err != nil {
		return routes.Deps{}, err
	}

	orderRepo := orders.NewRepository(conn)
	deps := checkoutsvc.Deps{
		Tx:        dbClient,
		Carts:     cartRepo,
		Products:  products,
		Coupons:   couponSvc,
		Customers: customerSvc,
		Accounts:  customerRepo,
		Shipping:  shipping.NewRepository(conn),
		Tax:       tax.NewRateTable(conn),
		Orders:    orderRepo,
		Repo:      checkoutsvc.NewRepository(conn),
		Numbers:   ordernumber.New(redisClient, cfg.Checkout.OrderNumberPrefix, logg),
		Outbox:    events,
		Metrics:   checkoutMetrics,
		Logger:    logg,
		Source:    cfg.Checkout.Source,
	}
	addresses := address.NewService(nil)
	if cfg.GoogleMaps.APIKey != "" {
		mapsClient, err := maps.NewClient(cfg.GoogleMaps.APIKey)
		if err != nil {
			return routes.Deps{}, err
		}
		addresses = address.NewService(mapsClient)
		if cfg.FeatureFlags.ResolvePostalCodes {
			deps.Postal = mapsClient
		}
	}
	checkoutSvc, err := checkoutsvc.NewService(deps)
	if err != nil {
		return routes.Deps{}, err
	}

	orderSvc, err := orders.NewService(orderRepo)
	if err != nil {
		return routes.Deps{}, err
	}

	return routes.Deps{
		Config: cfg,
		Logger: logg,
		Redis:  redisClient,
		Ready: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		Gatherer:   reg,
		Checkout:   checkoutSvc,
		Cart:       cartSvc,
		CartOffers: offerSvc,
		Orders:     orderSvc,
		Addresses:  addresses,
	}, nil
}
