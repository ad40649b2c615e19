package promo

import (
	"context"
	"time"

	"promo-service/internal/model"

	"github.com/rs/zerolog"
)

// evaluator implements Evaluator against a UsageCounter-backed ledger.
type evaluator struct {
	usage  UsageCounter
	now    func() time.Time
	logger zerolog.Logger
}

// NewEvaluator creates a new eligibility evaluator.
func NewEvaluator(usage UsageCounter, logger zerolog.Logger) Evaluator {
	return &evaluator{
		usage:  usage,
		now:    time.Now,
		logger: logger.With().Str("component", "eligibility-evaluator").Logger(),
	}
}

// Eligible applies the eligibility checks in order: validity window,
// minimum order amount, usage limit, item scope, category scope. A
// promotion failing any check is excluded silently. A promotion whose
// usage count cannot be fetched is excluded rather than failing the whole
// evaluation, so one broken promotion does not block the rest.
func (e *evaluator) Eligible(ctx context.Context, promotions []model.Promotion, order *model.OrderContext) ([]model.Promotion, error) {
	if order == nil {
		return nil, model.ErrEmptyOrder
	}

	now := e.now()
	eligible := make([]model.Promotion, 0, len(promotions))

	for i := range promotions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := &promotions[i]

		if !p.ActiveAt(now) {
			continue
		}

		if order.OrderAmount < p.MinOrderAmount {
			continue
		}

		if p.UsageLimit > 0 {
			count, err := e.usage.Count(ctx, p.ID, order.CustomerID)
			if err != nil {
				e.logger.Warn().
					Err(err).
					Str("promotion_id", p.ID.String()).
					Msg("usage count lookup failed, excluding promotion")
				continue
			}
			if count >= int64(p.UsageLimit) {
				continue
			}
		}

		if len(p.ApplicableItems) > 0 && !anyLineMatches(order.Items, p.ApplicableItems, lineItemID) {
			continue
		}

		if len(p.ApplicableCategories) > 0 && !anyLineMatches(order.Items, p.ApplicableCategories, lineCategoryID) {
			continue
		}

		eligible = append(eligible, *p)
	}

	e.logger.Debug().
		Int("candidates", len(promotions)).
		Int("eligible", len(eligible)).
		Msg("eligibility evaluation completed")

	return eligible, nil
}

func lineItemID(l model.OrderLine) string     { return l.ItemID }
func lineCategoryID(l model.OrderLine) string { return l.CategoryID }

// anyLineMatches reports whether at least one order line's key appears in
// the allowed set. Item and category scopes are independent filters; when
// both are present they may be satisfied by different lines.
func anyLineMatches(lines []model.OrderLine, allowed []string, key func(model.OrderLine) string) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, id := range allowed {
		set[id] = struct{}{}
	}
	for _, line := range lines {
		if _, ok := set[key(line)]; ok {
			return true
		}
	}
	return false
}
