package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"promo-service/internal/model"
	"promo-service/internal/promo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPromotionRepository is a mock implementation of PromotionRepository.
type MockPromotionRepository struct {
	mock.Mock
}

func (m *MockPromotionRepository) Create(ctx context.Context, p *model.Promotion) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPromotionRepository) Update(ctx context.Context, p *model.Promotion) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPromotionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockPromotionRepository) List(ctx context.Context, activeOnly bool, asOf time.Time) ([]model.Promotion, error) {
	args := m.Called(ctx, activeOnly, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Promotion), args.Error(1)
}

func (m *MockPromotionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUsageRepository is a mock implementation of UsageRepository.
type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsageRepository) LockPromotion(ctx context.Context, tx pgx.Tx, promotionID uuid.UUID) (*model.Promotion, error) {
	args := m.Called(ctx, tx, promotionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Promotion), args.Error(1)
}

func (m *MockUsageRepository) CountTx(ctx context.Context, tx pgx.Tx, promotionID uuid.UUID, customerID *string) (int64, error) {
	args := m.Called(ctx, tx, promotionID, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageRepository) Insert(ctx context.Context, tx pgx.Tx, rec *model.UsageRecord) error {
	args := m.Called(ctx, tx, rec)
	return args.Error(0)
}

func (m *MockUsageRepository) Count(ctx context.Context, promotionID uuid.UUID, customerID *string) (int64, error) {
	args := m.Called(ctx, promotionID, customerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUsageRepository) HasUsage(ctx context.Context, promotionID uuid.UUID) (bool, error) {
	args := m.Called(ctx, promotionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUsageRepository) Stats(ctx context.Context, promotionID uuid.UUID, from, to *time.Time) (*model.UsageStats, error) {
	args := m.Called(ctx, promotionID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UsageStats), args.Error(1)
}

func (m *MockUsageRepository) Report(ctx context.Context, from, to *time.Time) ([]model.PromotionUsageReport, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PromotionUsageReport), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }

// newTestService wires a service over mocks with the real engine components.
func newTestService(promoRepo *MockPromotionRepository, usageRepo *MockUsageRepository) PromotionService {
	logger := zerolog.Nop()
	return NewPromotionService(
		promoRepo,
		usageRepo,
		promo.NewEvaluator(usageRepo, logger),
		promo.NewCalculator(),
		logger,
	)
}

// activePromotion builds a promotion valid around the current day.
func activePromotion(discountType model.DiscountType, value float64) model.Promotion {
	now := time.Now()
	return model.Promotion{
		ID:                   uuid.New(),
		Name:                 "Test promotion",
		DiscountType:         discountType,
		DiscountValue:        value,
		StartDate:            now.AddDate(0, 0, -1),
		EndDate:              now.AddDate(0, 0, 1),
		ApplicableCategories: []string{},
		ApplicableItems:      []string{},
	}
}

func TestPromotionService_Quote_SortsByRawDiscountValue(t *testing.T) {
	ctx := context.Background()

	// A percentage promotion with a tight cap still outranks a fixed
	// promotion whose computed discount is larger; ranking follows the
	// raw discount value.
	capped := activePromotion(model.DiscountPercentage, 50)
	capped.MaxDiscount = 1
	fixed := activePromotion(model.DiscountFixed, 2)

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	promoRepo.On("List", ctx, true, mock.AnythingOfType("time.Time")).
		Return([]model.Promotion{fixed, capped}, nil)

	service := newTestService(promoRepo, usageRepo)

	quotes, err := service.Quote(ctx, &model.OrderContext{OrderAmount: 100}, false)

	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, capped.ID, quotes[0].Promotion.ID)
	assert.Equal(t, 1.00, quotes[0].DiscountAmount)
	assert.Equal(t, fixed.ID, quotes[1].Promotion.ID)
	assert.Equal(t, 2.00, quotes[1].DiscountAmount)
}

func TestPromotionService_Quote_SortByComputedDiscount(t *testing.T) {
	ctx := context.Background()

	capped := activePromotion(model.DiscountPercentage, 50)
	capped.MaxDiscount = 1
	fixed := activePromotion(model.DiscountFixed, 2)

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	promoRepo.On("List", ctx, true, mock.AnythingOfType("time.Time")).
		Return([]model.Promotion{fixed, capped}, nil)

	service := newTestService(promoRepo, usageRepo)

	quotes, err := service.Quote(ctx, &model.OrderContext{OrderAmount: 100}, true)

	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, fixed.ID, quotes[0].Promotion.ID)
	assert.Equal(t, capped.ID, quotes[1].Promotion.ID)
}

func TestPromotionService_Quote_TiesPreserveCatalogOrder(t *testing.T) {
	ctx := context.Background()

	first := activePromotion(model.DiscountFixed, 5)
	second := activePromotion(model.DiscountFixed, 5)

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	promoRepo.On("List", ctx, true, mock.AnythingOfType("time.Time")).
		Return([]model.Promotion{first, second}, nil)

	service := newTestService(promoRepo, usageRepo)

	quotes, err := service.Quote(ctx, &model.OrderContext{OrderAmount: 100}, false)

	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, first.ID, quotes[0].Promotion.ID)
	assert.Equal(t, second.ID, quotes[1].Promotion.ID)
}

func TestPromotionService_Quote_ExcludesIneligible(t *testing.T) {
	ctx := context.Background()

	// Scenario: order subtotal below the minimum keeps the promotion out
	// of the quote entirely.
	p := activePromotion(model.DiscountFixed, 5)
	p.MinOrderAmount = 20

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	promoRepo.On("List", ctx, true, mock.AnythingOfType("time.Time")).
		Return([]model.Promotion{p}, nil)

	service := newTestService(promoRepo, usageRepo)

	quotes, err := service.Quote(ctx, &model.OrderContext{OrderAmount: 15}, false)

	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestPromotionService_Quote_MalformedPromotionExcluded(t *testing.T) {
	ctx := context.Background()

	healthy := activePromotion(model.DiscountFixed, 5)
	malformed := activePromotion("mystery", 99)

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	promoRepo.On("List", ctx, true, mock.AnythingOfType("time.Time")).
		Return([]model.Promotion{malformed, healthy}, nil)

	service := newTestService(promoRepo, usageRepo)

	quotes, err := service.Quote(ctx, &model.OrderContext{OrderAmount: 100}, false)

	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, healthy.ID, quotes[0].Promotion.ID)
}

func TestPromotionService_Quote_Idempotent(t *testing.T) {
	ctx := context.Background()

	p := activePromotion(model.DiscountPercentage, 10)

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	promoRepo.On("List", ctx, true, mock.AnythingOfType("time.Time")).
		Return([]model.Promotion{p}, nil)

	service := newTestService(promoRepo, usageRepo)

	order := &model.OrderContext{OrderAmount: 50}

	firstPass, err := service.Quote(ctx, order, false)
	require.NoError(t, err)
	secondPass, err := service.Quote(ctx, order, false)
	require.NoError(t, err)

	assert.Equal(t, firstPass, secondPass)
	usageRepo.AssertNotCalled(t, "Insert")
}

func TestPromotionService_Redeem_Success(t *testing.T) {
	ctx := context.Background()

	p := activePromotion(model.DiscountFixed, 5)
	p.UsageLimit = 1
	customerID := "cust-1"

	req := &model.RedeemRequest{
		PromotionID:    p.ID,
		OrderID:        uuid.New(),
		CustomerID:     &customerID,
		DiscountAmount: 5.00,
	}

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	mockTx := new(MockTx)

	usageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	usageRepo.On("LockPromotion", ctx, mockTx, p.ID).Return(&p, nil)
	usageRepo.On("CountTx", ctx, mockTx, p.ID, &customerID).Return(int64(0), nil)
	usageRepo.On("Insert", ctx, mockTx, mock.AnythingOfType("*model.UsageRecord")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	service := newTestService(promoRepo, usageRepo)

	rec, err := service.Redeem(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, p.ID, rec.PromotionID)
	assert.Equal(t, req.OrderID, rec.OrderID)
	assert.Equal(t, 5.00, rec.DiscountAmount)
	assert.NotEqual(t, uuid.Nil, rec.ID)

	usageRepo.AssertExpectations(t)
	mockTx.AssertExpectations(t)
}

func TestPromotionService_Redeem_UsageLimitExceeded(t *testing.T) {
	ctx := context.Background()

	// Scenario: a single-use promotion already redeemed by this customer
	// rejects the second attempt.
	p := activePromotion(model.DiscountFixed, 5)
	p.UsageLimit = 1
	customerID := "cust-1"

	req := &model.RedeemRequest{
		PromotionID:    p.ID,
		OrderID:        uuid.New(),
		CustomerID:     &customerID,
		DiscountAmount: 5.00,
	}

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	mockTx := new(MockTx)

	usageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	usageRepo.On("LockPromotion", ctx, mockTx, p.ID).Return(&p, nil)
	usageRepo.On("CountTx", ctx, mockTx, p.ID, &customerID).Return(int64(1), nil)
	mockTx.On("Rollback", ctx).Return(nil)

	service := newTestService(promoRepo, usageRepo)

	rec, err := service.Redeem(ctx, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrUsageLimitExceeded, err)
	assert.Nil(t, rec)

	usageRepo.AssertNotCalled(t, "Insert")
	mockTx.AssertExpectations(t)
}

func TestPromotionService_Redeem_UnlimitedSkipsCount(t *testing.T) {
	ctx := context.Background()

	p := activePromotion(model.DiscountFixed, 5)

	req := &model.RedeemRequest{
		PromotionID:    p.ID,
		OrderID:        uuid.New(),
		DiscountAmount: 5.00,
	}

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	mockTx := new(MockTx)

	usageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	usageRepo.On("LockPromotion", ctx, mockTx, p.ID).Return(&p, nil)
	usageRepo.On("Insert", ctx, mockTx, mock.AnythingOfType("*model.UsageRecord")).Return(nil)
	mockTx.On("Commit", ctx).Return(nil)

	service := newTestService(promoRepo, usageRepo)

	rec, err := service.Redeem(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, rec)

	usageRepo.AssertNotCalled(t, "CountTx")
	mockTx.AssertExpectations(t)
}

func TestPromotionService_Redeem_PromotionNotFound(t *testing.T) {
	ctx := context.Background()

	req := &model.RedeemRequest{
		PromotionID: uuid.New(),
		OrderID:     uuid.New(),
	}

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	mockTx := new(MockTx)

	usageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	usageRepo.On("LockPromotion", ctx, mockTx, req.PromotionID).Return(nil, nil)
	mockTx.On("Rollback", ctx).Return(nil)

	service := newTestService(promoRepo, usageRepo)

	rec, err := service.Redeem(ctx, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrPromotionNotFound, err)
	assert.Nil(t, rec)

	mockTx.AssertExpectations(t)
}

func TestPromotionService_Redeem_InsertFailureRollsBack(t *testing.T) {
	ctx := context.Background()

	p := activePromotion(model.DiscountFixed, 5)

	req := &model.RedeemRequest{
		PromotionID: p.ID,
		OrderID:     uuid.New(),
	}

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	mockTx := new(MockTx)

	usageRepo.On("BeginTx", ctx).Return(mockTx, nil)
	usageRepo.On("LockPromotion", ctx, mockTx, p.ID).Return(&p, nil)
	usageRepo.On("Insert", ctx, mockTx, mock.AnythingOfType("*model.UsageRecord")).
		Return(errors.New("database error"))
	mockTx.On("Rollback", ctx).Return(nil)

	service := newTestService(promoRepo, usageRepo)

	rec, err := service.Redeem(ctx, req)

	require.Error(t, err)
	assert.Nil(t, rec)

	mockTx.AssertExpectations(t)
	mockTx.AssertNotCalled(t, "Commit")
}

func TestPromotionService_CreatePromotion_Validation(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	valid := model.PromotionRequest{
		Name:          "Weekend deal",
		DiscountType:  "percentage",
		DiscountValue: 15,
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, 7),
	}

	tests := []struct {
		name         string
		mutate       func(*model.PromotionRequest)
		expectedErr  error
		expectedCode string
	}{
		{
			name:         "Missing name",
			mutate:       func(r *model.PromotionRequest) { r.Name = "" },
			expectedCode: model.ErrCodeMissingField,
		},
		{
			name:        "Unknown discount type",
			mutate:      func(r *model.PromotionRequest) { r.DiscountType = "mystery" },
			expectedErr: model.ErrInvalidDiscountType,
		},
		{
			name:        "Percentage above 100",
			mutate:      func(r *model.PromotionRequest) { r.DiscountValue = 120 },
			expectedErr: model.ErrInvalidDiscountValue,
		},
		{
			name: "Negative fixed value",
			mutate: func(r *model.PromotionRequest) {
				r.DiscountType = "fixed"
				r.DiscountValue = -5
			},
			expectedErr: model.ErrInvalidDiscountValue,
		},
		{
			name:        "End before start",
			mutate:      func(r *model.PromotionRequest) { r.EndDate = r.StartDate.AddDate(0, 0, -1) },
			expectedErr: model.ErrInvalidDateRange,
		},
		{
			name:         "Negative usage limit",
			mutate:       func(r *model.PromotionRequest) { r.UsageLimit = -1 },
			expectedCode: model.ErrCodeInvalidDiscountVal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			promoRepo := new(MockPromotionRepository)
			usageRepo := new(MockUsageRepository)
			service := newTestService(promoRepo, usageRepo)

			req := valid
			tt.mutate(&req)

			p, err := service.CreatePromotion(ctx, &req)

			require.Error(t, err)
			assert.Nil(t, p)
			if tt.expectedErr != nil {
				assert.Equal(t, tt.expectedErr, err)
			}
			if tt.expectedCode != "" {
				var domainErr *model.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, tt.expectedCode, domainErr.Code)
			}
			promoRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestPromotionService_CreatePromotion_Success(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	req := &model.PromotionRequest{
		Name:          "Weekend deal",
		Description:   "15% off all weekend",
		DiscountType:  "percentage",
		DiscountValue: 15,
		MaxDiscount:   10,
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, 7),
		UsageLimit:    100,
	}

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	promoRepo.On("Create", ctx, mock.AnythingOfType("*model.Promotion")).Return(nil)

	service := newTestService(promoRepo, usageRepo)

	p, err := service.CreatePromotion(ctx, req)

	require.NoError(t, err)
	require.NotNil(t, p)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, model.DiscountPercentage, p.DiscountType)
	assert.NotNil(t, p.ApplicableItems)
	assert.NotNil(t, p.ApplicableCategories)

	promoRepo.AssertExpectations(t)
}

func TestPromotionService_UpdatePromotion_NotFound(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	id := uuid.New()
	req := &model.PromotionRequest{
		Name:          "Renamed deal",
		DiscountType:  "fixed",
		DiscountValue: 5,
		StartDate:     now,
		EndDate:       now.AddDate(0, 0, 7),
	}

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	promoRepo.On("GetByID", ctx, id).Return(nil, nil)

	service := newTestService(promoRepo, usageRepo)

	p, err := service.UpdatePromotion(ctx, id, req)

	require.Error(t, err)
	assert.Equal(t, model.ErrPromotionNotFound, err)
	assert.Nil(t, p)
	promoRepo.AssertNotCalled(t, "Update")
}

func TestPromotionService_DeletePromotion(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("Refuses when promotion has usage", func(t *testing.T) {
		promoRepo := new(MockPromotionRepository)
		usageRepo := new(MockUsageRepository)
		usageRepo.On("HasUsage", ctx, id).Return(true, nil)

		service := newTestService(promoRepo, usageRepo)

		err := service.DeletePromotion(ctx, id)

		require.Error(t, err)
		assert.Equal(t, model.ErrPromotionInUse, err)
		promoRepo.AssertNotCalled(t, "Delete")
	})

	t.Run("Deletes unused promotion", func(t *testing.T) {
		promoRepo := new(MockPromotionRepository)
		usageRepo := new(MockUsageRepository)
		usageRepo.On("HasUsage", ctx, id).Return(false, nil)
		promoRepo.On("Delete", ctx, id).Return(nil)

		service := newTestService(promoRepo, usageRepo)

		err := service.DeletePromotion(ctx, id)

		require.NoError(t, err)
		promoRepo.AssertExpectations(t)
	})
}

func TestPromotionService_UsageStats_NotFound(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	promoRepo := new(MockPromotionRepository)
	usageRepo := new(MockUsageRepository)
	promoRepo.On("GetByID", ctx, id).Return(nil, nil)

	service := newTestService(promoRepo, usageRepo)

	stats, err := service.UsageStats(ctx, id, nil, nil)

	require.Error(t, err)
	assert.Equal(t, model.ErrPromotionNotFound, err)
	assert.Nil(t, stats)
	usageRepo.AssertNotCalled(t, "Stats")
}
