package products

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novapharm/novapharm/internal/shared"
)

// Repository defines persistence operations for products. Every query is
// scoped to a pharmacy so one tenant can never read another tenant's stock.
type Repository interface {
	List(ctx context.Context, pharmacyID uuid.UUID, filters shared.ListFilters) ([]Product, int, error)
	Get(ctx context.Context, pharmacyID, id uuid.UUID) (Product, error)
	GetByBarcode(ctx context.Context, pharmacyID uuid.UUID, barcode string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	Update(ctx context.Context, pharmacyID, id uuid.UUID, product Product) error
	Delete(ctx context.Context, pharmacyID, id uuid.UUID) error
	AdjustStock(ctx context.Context, pharmacyID, id uuid.UUID, delta int) (int, error)
	ListExpiringBefore(ctx context.Context, pharmacyID uuid.UUID, cutoff time.Time) ([]Product, error)
	ListAll(ctx context.Context, pharmacyID uuid.UUID) ([]Product, error)
	Categories(ctx context.Context, pharmacyID uuid.UUID) ([]string, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const productColumns = `id, pharmacy_id, name, barcode, category, description, manufacturer, price, cost_price, stock_quantity, min_stock_level, expiry_date, created_at, updated_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.PharmacyID, &p.Name, &p.Barcode, &p.Category, &p.Description,
		&p.Manufacturer, &p.Price, &p.CostPrice, &p.StockQuantity, &p.MinStockLevel,
		&p.ExpiryDate, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *repository) List(ctx context.Context, pharmacyID uuid.UUID, filters shared.ListFilters) ([]Product, int, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE pharmacy_id = $1`
	args := []any{pharmacyID}
	argCount := 1

	countQuery := `SELECT COUNT(*) FROM products WHERE pharmacy_id = $1`
	countArgs := []any{pharmacyID}

	if filters.Search != "" {
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		query += ` AND (name ILIKE ` + placeholder + ` OR barcode ILIKE ` + placeholder + ` OR manufacturer ILIKE ` + placeholder + `)`
		countQuery += ` AND (name ILIKE $2 OR barcode ILIKE $2 OR manufacturer ILIKE $2)`
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY " + sortOrder(filters.SortBy, filters.SortDir)

	if filters.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filters.Limit)

		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		offset := (filters.Page - 1) * filters.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, pharmacyID, id uuid.UUID) (Product, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE pharmacy_id = $1 AND id = $2`,
		pharmacyID, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) GetByBarcode(ctx context.Context, pharmacyID uuid.UUID, barcode string) (Product, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE pharmacy_id = $1 AND barcode = $2`,
		pharmacyID, barcode)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, shared.ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func (r *repository) Create(ctx context.Context, product Product) (Product, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx,
		`INSERT INTO products (pharmacy_id, name, barcode, category, description, manufacturer, price, cost_price, stock_quantity, min_stock_level, expiry_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12) RETURNING id`,
		product.PharmacyID, product.Name, product.Barcode, product.Category, product.Description,
		product.Manufacturer, product.Price, product.CostPrice, product.StockQuantity,
		product.MinStockLevel, product.ExpiryDate, now).Scan(&product.ID)
	if err != nil {
		return Product{}, err
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

func (r *repository) Update(ctx context.Context, pharmacyID, id uuid.UUID, product Product) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE products SET name = $1, barcode = $2, category = $3, description = $4, manufacturer = $5,
		 price = $6, cost_price = $7, stock_quantity = $8, min_stock_level = $9, expiry_date = $10, updated_at = $11
		 WHERE pharmacy_id = $12 AND id = $13`,
		product.Name, product.Barcode, product.Category, product.Description, product.Manufacturer,
		product.Price, product.CostPrice, product.StockQuantity, product.MinStockLevel,
		product.ExpiryDate, time.Now(), pharmacyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, pharmacyID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE pharmacy_id = $1 AND id = $2`, pharmacyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AdjustStock applies a relative stock change and returns the new quantity.
// Negative deltas are clamped so the stored quantity never drops below zero.
func (r *repository) AdjustStock(ctx context.Context, pharmacyID, id uuid.UUID, delta int) (int, error) {
	var qty int
	err := r.db.QueryRow(ctx,
		`UPDATE products SET stock_quantity = GREATEST(stock_quantity + $1, 0), updated_at = NOW()
		 WHERE pharmacy_id = $2 AND id = $3 RETURNING stock_quantity`,
		delta, pharmacyID, id).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shared.ErrNotFound
		}
		return 0, err
	}
	return qty, nil
}

func (r *repository) ListExpiringBefore(ctx context.Context, pharmacyID uuid.UUID, cutoff time.Time) ([]Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products
		 WHERE pharmacy_id = $1 AND expiry_date IS NOT NULL AND expiry_date <= $2
		 ORDER BY expiry_date ASC`,
		pharmacyID, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repository) ListAll(ctx context.Context, pharmacyID uuid.UUID) ([]Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE pharmacy_id = $1 ORDER BY name ASC`,
		pharmacyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *repository) Categories(ctx context.Context, pharmacyID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT category FROM products WHERE pharmacy_id = $1 AND category <> '' ORDER BY category ASC`,
		pharmacyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func sortOrder(sortBy, sortDir string) string {
	dir := "ASC"
	if sortDir == "desc" {
		dir = "DESC"
	}
	switch sortBy {
	case "name":
		return "name " + dir
	case "price":
		return "price " + dir
	case "stock_quantity":
		return "stock_quantity " + dir
	case "expiry_date":
		return "expiry_date " + dir + " NULLS LAST"
	case "created_at":
		return "created_at " + dir
	default:
		return "name " + dir
	}
}
