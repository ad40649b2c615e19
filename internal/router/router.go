package router

import (
	"net/http"
	"strings"

	"promo-service/internal/handler"
	"promo-service/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	promotionHandler *handler.PromotionHandler,
	checkoutHandler *handler.CheckoutHandler,
	apiKey string,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Promotion catalog routes
	promotionRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		// Collection routes: /api/promotions
		if r.URL.Path == "/api/promotions" || r.URL.Path == "/api/promotions/" {
			switch r.Method {
			case http.MethodPost:
				promotionHandler.Create(w, r)
			case http.MethodGet:
				promotionHandler.List(w, r)
			default:
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			}
			return
		}

		// Stats sub-resource: /api/promotions/{id}/stats
		if strings.HasSuffix(r.URL.Path, "/stats") {
			if r.Method != http.MethodGet {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			promotionHandler.Stats(w, r)
			return
		}

		// Item routes: /api/promotions/{id}
		switch r.Method {
		case http.MethodGet:
			promotionHandler.Get(w, r)
		case http.MethodPut:
			promotionHandler.Update(w, r)
		case http.MethodDelete:
			promotionHandler.Delete(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}

	mux.HandleFunc("/api/promotions", promotionRouteHandler)
	mux.HandleFunc("/api/promotions/", promotionRouteHandler)

	// Checkout flow routes
	mux.HandleFunc("/api/quotes", requireMethod(http.MethodPost, checkoutHandler.Quote))
	mux.HandleFunc("/api/redemptions", requireMethod(http.MethodPost, checkoutHandler.Redeem))

	// Reporting routes
	mux.HandleFunc("/api/reports/promotions", requireMethod(http.MethodGet, promotionHandler.Report))

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS -> APIKeyAuth
	var h http.Handler = mux
	h = middleware.APIKeyAuth(apiKey, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.RequestID(h)
	h = middleware.Recovery(logger)(h)

	return h
}

// requireMethod rejects requests whose method does not match.
func requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}
