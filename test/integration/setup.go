package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"promo-service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS promotions (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			discount_type VARCHAR(20) NOT NULL,
			discount_value DECIMAL(10, 2) NOT NULL,
			min_order_amount DECIMAL(10, 2) NOT NULL DEFAULT 0,
			max_discount DECIMAL(10, 2) NOT NULL DEFAULT 0,
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			applicable_categories TEXT[] NOT NULL DEFAULT '{}',
			applicable_items TEXT[] NOT NULL DEFAULT '{}',
			usage_limit INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS promotion_usage (
			id UUID PRIMARY KEY,
			promotion_id UUID NOT NULL REFERENCES promotions(id),
			order_id UUID NOT NULL,
			customer_id VARCHAR(50),
			discount_amount DECIMAL(10, 2) NOT NULL,
			used_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_promotion_usage_promotion
			ON promotion_usage (promotion_id, customer_id);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedPromotion inserts one promotion and returns it. Mutate the returned
// value before calling for variants; the defaults describe an active,
// unrestricted 10% promotion.
func SeedPromotion(t *testing.T, pool *pgxpool.Pool, mutate func(*model.Promotion)) *model.Promotion {
	t.Helper()

	ctx := context.Background()
	now := time.Now()

	p := &model.Promotion{
		ID:                   uuid.New(),
		Name:                 "Test Promotion",
		Description:          "seeded for tests",
		DiscountType:         model.DiscountPercentage,
		DiscountValue:        10,
		StartDate:            now.AddDate(0, 0, -1),
		EndDate:              now.AddDate(0, 0, 30),
		ApplicableCategories: []string{},
		ApplicableItems:      []string{},
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if mutate != nil {
		mutate(p)
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO promotions (id, name, description, discount_type, discount_value,
			min_order_amount, max_discount, start_date, end_date,
			applicable_categories, applicable_items, usage_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, p.ID, p.Name, p.Description, p.DiscountType, p.DiscountValue,
		p.MinOrderAmount, p.MaxDiscount, p.StartDate, p.EndDate,
		p.ApplicableCategories, p.ApplicableItems, p.UsageLimit, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to seed promotion %s: %v", p.Name, err)
	}

	return p
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"promotion_usage", "promotions"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
