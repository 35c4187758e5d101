package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/product"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// InventoryStore persists products and orders in PostgreSQL.
type InventoryStore struct {
	pool *pgxpool.Pool
}

func NewInventoryStore(pool *pgxpool.Pool) *InventoryStore {
	return &InventoryStore{pool: pool}
}

// Connect opens a pool and verifies the server is reachable.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables when they do not exist yet.
func (s *InventoryStore) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}

func (s *InventoryStore) LoadOrderWithItems(ctx context.Context, orderID int64) (*domorder.Order, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM orders WHERE id=$1`, orderID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domorder.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: load order %d: %w", orderID, err)
	}

	rows, err := s.pool.Query(ctx, `
SELECT p.id, p.name, p.category, p.available, p.lead_time_days, p.season_start, p.season_end, p.expiry_date
FROM order_items oi
JOIN products p ON p.id = oi.product_id
WHERE oi.order_id = $1
ORDER BY p.id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("postgres: load items %d: %w", orderID, err)
	}
	defer rows.Close()

	var items []*product.Product
	for rows.Next() {
		p := &product.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Available, &p.LeadTimeDays, &p.SeasonStart, &p.SeasonEnd, &p.ExpiryDate); err != nil {
			return nil, fmt.Errorf("postgres: scan item: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: load items %d: %w", orderID, err)
	}
	return domorder.New(id, items), nil
}

// SaveProduct writes back the inventory fields the fulfillment engine mutates.
func (s *InventoryStore) SaveProduct(ctx context.Context, p *product.Product) error {
	if p == nil {
		return nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE products SET available=$2, lead_time_days=$3 WHERE id=$1`,
		p.ID, p.Available, p.LeadTimeDays,
	)
	if err != nil {
		return fmt.Errorf("postgres: save product %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: save product %d: %w", p.ID, product.ErrNotFound)
	}
	return nil
}

// PutProduct upserts a full product row.
func (s *InventoryStore) PutProduct(ctx context.Context, p *product.Product) error {
	if p == nil {
		return nil
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("postgres: put product %d: %w", p.ID, err)
	}
	_, err := s.pool.Exec(ctx, `
INSERT INTO products(id, name, category, available, lead_time_days, season_start, season_end, expiry_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    name=EXCLUDED.name, category=EXCLUDED.category, available=EXCLUDED.available,
    lead_time_days=EXCLUDED.lead_time_days, season_start=EXCLUDED.season_start,
    season_end=EXCLUDED.season_end, expiry_date=EXCLUDED.expiry_date`,
		p.ID, p.Name, p.Category, p.Available, p.LeadTimeDays, p.SeasonStart, p.SeasonEnd, p.ExpiryDate,
	)
	if err != nil {
		return fmt.Errorf("postgres: put product %d: %w", p.ID, err)
	}
	return nil
}

// PutOrder creates the order if needed and replaces its item links.
func (s *InventoryStore) PutOrder(ctx context.Context, orderID int64, productIDs ...int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: put order %d: %w", orderID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `INSERT INTO orders(id) VALUES($1) ON CONFLICT (id) DO NOTHING`, orderID); err != nil {
		return fmt.Errorf("postgres: put order %d: %w", orderID, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, orderID); err != nil {
		return fmt.Errorf("postgres: put order %d: %w", orderID, err)
	}
	for _, pid := range productIDs {
		_, err := tx.Exec(ctx,
			`INSERT INTO order_items(order_id, product_id) VALUES($1, $2) ON CONFLICT DO NOTHING`,
			orderID, pid,
		)
		if err != nil {
			return fmt.Errorf("postgres: put order %d item %d: %w", orderID, pid, err)
		}
	}
	return tx.Commit(ctx)
}

// Product returns a single stored product.
func (s *InventoryStore) Product(ctx context.Context, id int64) (*product.Product, error) {
	p := &product.Product{}
	err := s.pool.QueryRow(ctx, `
SELECT id, name, category, available, lead_time_days, season_start, season_end, expiry_date
FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Category, &p.Available, &p.LeadTimeDays, &p.SeasonStart, &p.SeasonEnd, &p.ExpiryDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, product.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: product %d: %w", id, err)
	}
	return p, nil
}
