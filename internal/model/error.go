package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeInvalidDiscountType = "INVALID_DISCOUNT_TYPE"
	ErrCodeInvalidDiscountVal  = "INVALID_DISCOUNT_VALUE"
	ErrCodeInvalidDateRange    = "INVALID_DATE_RANGE"
	ErrCodePromotionNotFound   = "PROMOTION_NOT_FOUND"
	ErrCodePromotionInUse      = "PROMOTION_IN_USE"
	ErrCodeUsageLimitExceeded  = "USAGE_LIMIT_EXCEEDED"
	ErrCodeEmptyOrder          = "EMPTY_ORDER"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError is a business-rule violation with a stable error code.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidDiscountType  = NewDomainError(ErrCodeInvalidDiscountType, "Discount type must be percentage, fixed or buy_one_get_one")
	ErrInvalidDiscountValue = NewDomainError(ErrCodeInvalidDiscountVal, "Discount value is out of range for the discount type")
	ErrInvalidDateRange     = NewDomainError(ErrCodeInvalidDateRange, "Promotion end date must not precede its start date")
	ErrPromotionNotFound    = NewDomainError(ErrCodePromotionNotFound, "Promotion not found")
	ErrPromotionInUse       = NewDomainError(ErrCodePromotionInUse, "Cannot delete a promotion that has been used")
	ErrUsageLimitExceeded   = NewDomainError(ErrCodeUsageLimitExceeded, "Promotion usage limit has been reached")
	ErrEmptyOrder           = NewDomainError(ErrCodeEmptyOrder, "Order context is required")
)
