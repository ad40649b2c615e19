package handler

import (
	"encoding/json"
	"net/http"

	"promo-service/internal/model"
	"promo-service/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// CheckoutHandler handles the quote and redemption flow used by checkout.
type CheckoutHandler struct {
	service service.PromotionService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.PromotionService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// Quote handles POST /api/quotes requests.
func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req model.QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	if req.SortBy != "" && req.SortBy != "value" && req.SortBy != "computed" {
		writeError(w, http.StatusBadRequest, "sortBy must be \"value\" or \"computed\"", h.logger)
		return
	}

	quotes, err := h.service.Quote(r.Context(), &req.Order, req.SortBy == "computed")
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	if quotes == nil {
		quotes = []model.Quote{}
	}

	writeJSON(w, http.StatusOK, quotes)
}

// Redeem handles POST /api/redemptions requests.
func (h *CheckoutHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req model.RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	if req.PromotionID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "promotion ID is required", h.logger)
		return
	}
	if req.OrderID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "order ID is required", h.logger)
		return
	}
	if req.DiscountAmount < 0 {
		writeError(w, http.StatusBadRequest, "discount amount must not be negative", h.logger)
		return
	}

	rec, err := h.service.Redeem(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}
