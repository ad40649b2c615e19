package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"promo-service/internal/model"
	"promo-service/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PromotionHandler handles promotion catalog HTTP requests.
type PromotionHandler struct {
	service service.PromotionService
	logger  zerolog.Logger
}

// NewPromotionHandler creates a new promotion handler.
func NewPromotionHandler(service service.PromotionService, logger zerolog.Logger) *PromotionHandler {
	return &PromotionHandler{
		service: service,
		logger:  logger.With().Str("handler", "promotion").Logger(),
	}
}

// Create handles POST /api/promotions requests.
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.PromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	p, err := h.service.CreatePromotion(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// List handles GET /api/promotions requests. The "active" query parameter
// restricts the listing to currently active promotions.
func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	promotions, err := h.service.ListPromotions(r.Context(), activeOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list promotions", h.logger)
		return
	}

	if promotions == nil {
		promotions = []model.Promotion{}
	}

	writeJSON(w, http.StatusOK, promotions)
}

// Get handles GET /api/promotions/{id} requests.
func (h *PromotionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.promotionID(w, r)
	if !ok {
		return
	}

	p, err := h.service.GetPromotion(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Update handles PUT /api/promotions/{id} requests.
func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.promotionID(w, r)
	if !ok {
		return
	}

	var req model.PromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", h.logger)
		return
	}

	p, err := h.service.UpdatePromotion(r.Context(), id, &req)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/promotions/{id} requests.
func (h *PromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.promotionID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeletePromotion(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Stats handles GET /api/promotions/{id}/stats requests.
func (h *PromotionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.promotionID(w, r)
	if !ok {
		return
	}

	from, to, err := parseDateRange(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range", h.logger)
		return
	}

	stats, err := h.service.UsageStats(r.Context(), id, from, to)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Report handles GET /api/reports/promotions requests.
func (h *PromotionHandler) Report(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date range", h.logger)
		return
	}

	report, err := h.service.UsageReport(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to build usage report", h.logger)
		return
	}

	if report == nil {
		report = []model.PromotionUsageReport{}
	}

	writeJSON(w, http.StatusOK, report)
}

// promotionID extracts the promotion id path segment from
// /api/promotions/{id} or /api/promotions/{id}/stats.
func (h *PromotionHandler) promotionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/promotions/")
	idStr := strings.SplitN(rest, "/", 2)[0]

	if idStr == "" {
		writeError(w, http.StatusBadRequest, "promotion ID is required", h.logger)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid promotion ID format", h.logger)
		return uuid.Nil, false
	}

	return id, true
}
