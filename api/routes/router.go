package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-bff/api/controllers"
	assistantcontrollers "github.com/angelmondragon/storefront-bff/api/controllers/assistant"
	cartcontrollers "github.com/angelmondragon/storefront-bff/api/controllers/cart"
	checkoutcontrollers "github.com/angelmondragon/storefront-bff/api/controllers/checkout"
	ordercontrollers "github.com/angelmondragon/storefront-bff/api/controllers/orders"
	productcontrollers "github.com/angelmondragon/storefront-bff/api/controllers/products"
	"github.com/angelmondragon/storefront-bff/api/middleware"
	"github.com/angelmondragon/storefront-bff/internal/cart"
	checkoutsvc "github.com/angelmondragon/storefront-bff/internal/checkout"
	"github.com/angelmondragon/storefront-bff/internal/orders"
	"github.com/angelmondragon/storefront-bff/internal/receipts"
	"github.com/angelmondragon/storefront-bff/internal/variants"
	"github.com/angelmondragon/storefront-bff/pkg/config"
	"github.com/angelmondragon/storefront-bff/pkg/logger"
	"github.com/angelmondragon/storefront-bff/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-bff/pkg/redis"
)

// Dependencies are the services and infrastructure the HTTP surface needs.
// A nil Assistant disables the assistant route (503 on use).
type Dependencies struct {
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	Idempotency pkgredis.IdempotencyStore
	Pingers     map[string]controllers.Pinger

	Cart      cart.Service
	Variants  variants.Service
	Checkout  checkoutsvc.Service
	Receipts  receipts.Service
	Orders    orders.Service
	Assistant assistantcontrollers.Sender
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Metrics(deps.HTTPMetrics),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers))
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartView(deps.Cart, logg))
			r.Post("/refresh", cartcontrollers.CartRefresh(deps.Cart, logg))
			r.Route("/selection", func(r chi.Router) {
				r.Post("/items", cartcontrollers.CartToggleItem(deps.Cart, logg))
				r.Post("/shops/{shopId}", cartcontrollers.CartToggleShop(deps.Cart, logg))
				r.Post("/all", cartcontrollers.CartToggleAll(deps.Cart, logg))
			})
			r.Post("/items", cartcontrollers.CartAdd(deps.Cart, logg))
			r.Route("/items/{key}", func(r chi.Router) {
				r.Post("/increment", cartcontrollers.CartIncrement(deps.Cart, logg))
				r.Post("/decrement", cartcontrollers.CartDecrement(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartDelete(deps.Cart, logg))
				r.Put("/variant", cartcontrollers.CartChangeVariant(deps.Cart, logg))
			})
		})

		r.Route("/products/{productId}/variants", func(r chi.Router) {
			r.Get("/", productcontrollers.VariantSheet(deps.Variants, logg))
			r.Post("/resolve", productcontrollers.VariantResolve(deps.Variants, logg))
		})

		r.Post("/checkout", checkoutcontrollers.PlaceOrder(deps.Checkout, logg))
		r.Get("/checkout/review", checkoutcontrollers.Review(deps.Checkout, logg))
		r.Get("/checkout/receipts", checkoutcontrollers.ReceiptList(deps.Receipts, logg))
		r.Get("/checkout/receipts/{orderId}", checkoutcontrollers.Receipt(deps.Receipts, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(deps.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
		})

		r.Post("/assistant/messages", assistantcontrollers.SendMessage(deps.Assistant, logg))
	})

	return r
}
