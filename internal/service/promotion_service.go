package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"promo-service/internal/model"
	"promo-service/internal/promo"
	"promo-service/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// promotionService implements PromotionService.
type promotionService struct {
	promoRepo  repository.PromotionRepository
	usageRepo  repository.UsageRepository
	evaluator  promo.Evaluator
	calculator promo.Calculator
	logger     zerolog.Logger
}

// NewPromotionService creates a new promotion service.
func NewPromotionService(
	promoRepo repository.PromotionRepository,
	usageRepo repository.UsageRepository,
	evaluator promo.Evaluator,
	calculator promo.Calculator,
	logger zerolog.Logger,
) PromotionService {
	return &promotionService{
		promoRepo:  promoRepo,
		usageRepo:  usageRepo,
		evaluator:  evaluator,
		calculator: calculator,
		logger:     logger.With().Str("service", "promotion").Logger(),
	}
}

// CreatePromotion validates and stores a new promotion definition.
func (s *promotionService) CreatePromotion(ctx context.Context, req *model.PromotionRequest) (*model.Promotion, error) {
	p, err := s.promotionFromRequest(req)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.promoRepo.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("name", p.Name).Msg("failed to create promotion")
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}

	s.logger.Info().
		Str("promotion_id", p.ID.String()).
		Str("name", p.Name).
		Str("discount_type", string(p.DiscountType)).
		Msg("promotion created")

	return p, nil
}

// UpdatePromotion validates and replaces an existing promotion definition.
func (s *promotionService) UpdatePromotion(ctx context.Context, id uuid.UUID, req *model.PromotionRequest) (*model.Promotion, error) {
	p, err := s.promotionFromRequest(req)
	if err != nil {
		return nil, err
	}

	existing, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}
	if existing == nil {
		return nil, model.ErrPromotionNotFound
	}

	p.ID = id
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now()

	if err := s.promoRepo.Update(ctx, p); err != nil {
		if err != model.ErrPromotionNotFound {
			s.logger.Error().Err(err).Str("promotion_id", id.String()).Msg("failed to update promotion")
		}
		return nil, err
	}

	s.logger.Info().Str("promotion_id", id.String()).Str("name", p.Name).Msg("promotion updated")

	return p, nil
}

// GetPromotion retrieves a single promotion.
func (s *promotionService) GetPromotion(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	p, err := s.promoRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	if p == nil {
		return nil, model.ErrPromotionNotFound
	}
	return p, nil
}

// ListPromotions retrieves the catalog, newest first.
func (s *promotionService) ListPromotions(ctx context.Context, activeOnly bool) ([]model.Promotion, error) {
	promotions, err := s.promoRepo.List(ctx, activeOnly, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	return promotions, nil
}

// DeletePromotion removes a promotion that has never been redeemed.
func (s *promotionService) DeletePromotion(ctx context.Context, id uuid.UUID) error {
	used, err := s.usageRepo.HasUsage(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}
	if used {
		s.logger.Warn().Str("promotion_id", id.String()).Msg("refusing to delete promotion with usage records")
		return model.ErrPromotionInUse
	}

	if err := s.promoRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Str("promotion_id", id.String()).Msg("promotion deleted")

	return nil
}

// Quote evaluates the active catalog against the order and returns the
// eligible promotions with their computed discounts. The default ranking
// is descending by the promotion's raw discount value with catalog order
// breaking ties; sortByComputed ranks by the computed amount instead.
func (s *promotionService) Quote(ctx context.Context, order *model.OrderContext, sortByComputed bool) ([]model.Quote, error) {
	if order == nil {
		return nil, model.ErrEmptyOrder
	}

	active, err := s.promoRepo.List(ctx, true, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to quote order: %w", err)
	}

	eligible, err := s.evaluator.Eligible(ctx, active, order)
	if err != nil {
		return nil, fmt.Errorf("failed to quote order: %w", err)
	}

	quotes := make([]model.Quote, 0, len(eligible))
	for i := range eligible {
		amount, err := s.calculator.Discount(&eligible[i], order)
		if err != nil {
			// One malformed promotion must not block the rest of the quote.
			s.logger.Warn().
				Err(err).
				Str("promotion_id", eligible[i].ID.String()).
				Msg("discount calculation failed, excluding promotion from quote")
			continue
		}
		quotes = append(quotes, model.Quote{Promotion: eligible[i], DiscountAmount: amount})
	}

	if sortByComputed {
		sort.SliceStable(quotes, func(i, j int) bool {
			return quotes[i].DiscountAmount > quotes[j].DiscountAmount
		})
	} else {
		sort.SliceStable(quotes, func(i, j int) bool {
			return quotes[i].Promotion.DiscountValue > quotes[j].Promotion.DiscountValue
		})
	}

	s.logger.Debug().
		Int("active", len(active)).
		Int("quoted", len(quotes)).
		Msg("order quoted")

	return quotes, nil
}

// Redeem commits a promotion against an order. The usage-limit check and
// the ledger append run in one transaction holding a row lock on the
// promotion, so concurrent redemptions of the last remaining slot cannot
// both succeed.
func (s *promotionService) Redeem(ctx context.Context, req *model.RedeemRequest) (*model.UsageRecord, error) {
	tx, err := s.usageRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem promotion: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback redemption transaction")
			}
		}
	}()

	p, err := s.usageRepo.LockPromotion(ctx, tx, req.PromotionID)
	if err != nil {
		return nil, fmt.Errorf("failed to redeem promotion: %w", err)
	}
	if p == nil {
		err = model.ErrPromotionNotFound
		return nil, err
	}

	if p.UsageLimit > 0 {
		var count int64
		count, err = s.usageRepo.CountTx(ctx, tx, req.PromotionID, req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("failed to redeem promotion: %w", err)
		}
		if count >= int64(p.UsageLimit) {
			s.logger.Warn().
				Str("promotion_id", req.PromotionID.String()).
				Int64("usage_count", count).
				Int("usage_limit", p.UsageLimit).
				Msg("redemption rejected, usage limit reached")
			err = model.ErrUsageLimitExceeded
			return nil, err
		}
	}

	rec := &model.UsageRecord{
		ID:             uuid.New(),
		PromotionID:    req.PromotionID,
		OrderID:        req.OrderID,
		CustomerID:     req.CustomerID,
		DiscountAmount: req.DiscountAmount,
		UsedAt:         time.Now(),
	}

	if err = s.usageRepo.Insert(ctx, tx, rec); err != nil {
		return nil, fmt.Errorf("failed to redeem promotion: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("promotion_id", req.PromotionID.String()).Msg("failed to commit redemption")
		return nil, fmt.Errorf("failed to redeem promotion: %w", err)
	}

	s.logger.Info().
		Str("promotion_id", rec.PromotionID.String()).
		Str("order_id", rec.OrderID.String()).
		Float64("discount_amount", rec.DiscountAmount).
		Msg("promotion redeemed")

	return rec, nil
}

// UsageStats aggregates the ledger for one promotion.
func (s *promotionService) UsageStats(ctx context.Context, promotionID uuid.UUID, from, to *time.Time) (*model.UsageStats, error) {
	p, err := s.promoRepo.GetByID(ctx, promotionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}
	if p == nil {
		return nil, model.ErrPromotionNotFound
	}

	stats, err := s.usageRepo.Stats(ctx, promotionID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage stats: %w", err)
	}

	return stats, nil
}

// UsageReport aggregates usage across the whole catalog.
func (s *promotionService) UsageReport(ctx context.Context, from, to *time.Time) ([]model.PromotionUsageReport, error) {
	report, err := s.usageRepo.Report(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to get usage report: %w", err)
	}
	return report, nil
}

// promotionFromRequest validates the request and builds a promotion.
func (s *promotionService) promotionFromRequest(req *model.PromotionRequest) (*model.Promotion, error) {
	if req == nil {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Promotion request body is required")
	}
	if req.Name == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Promotion name is required")
	}

	discountType, err := model.ParseDiscountType(req.DiscountType)
	if err != nil {
		return nil, err
	}

	switch discountType {
	case model.DiscountPercentage:
		if req.DiscountValue < 0 || req.DiscountValue > 100 {
			return nil, model.ErrInvalidDiscountValue
		}
	case model.DiscountFixed:
		if req.DiscountValue < 0 {
			return nil, model.ErrInvalidDiscountValue
		}
	}

	if req.EndDate.Before(req.StartDate) {
		return nil, model.ErrInvalidDateRange
	}

	if req.MinOrderAmount < 0 || req.MaxDiscount < 0 || req.UsageLimit < 0 {
		return nil, model.NewDomainError(model.ErrCodeInvalidDiscountVal, "Promotion amounts and usage limit must not be negative")
	}

	// The storage columns are non-null arrays; normalise absent lists.
	categories := req.ApplicableCategories
	if categories == nil {
		categories = []string{}
	}
	items := req.ApplicableItems
	if items == nil {
		items = []string{}
	}

	return &model.Promotion{
		Name:                 req.Name,
		Description:          req.Description,
		DiscountType:         discountType,
		DiscountValue:        req.DiscountValue,
		MinOrderAmount:       req.MinOrderAmount,
		MaxDiscount:          req.MaxDiscount,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		ApplicableCategories: categories,
		ApplicableItems:      items,
		UsageLimit:           req.UsageLimit,
	}, nil
}
