package customers

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

type Repository interface {
	List(ctx context.Context, pharmacyID uuid.UUID, filters shared.ListFilters) ([]Customer, int, error)
	ListAll(ctx context.Context, pharmacyID uuid.UUID) ([]Customer, error)
	Get(ctx context.Context, pharmacyID, id uuid.UUID) (Customer, error)
	Create(ctx context.Context, customer Customer) (Customer, error)
	Update(ctx context.Context, pharmacyID, id uuid.UUID, customer Customer) error
	Delete(ctx context.Context, pharmacyID, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const customerColumns = `id, pharmacy_id, name, phone, email, address, notes, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.PharmacyID, &c.Name, &c.Phone, &c.Email, &c.Address, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (r *repository) List(ctx context.Context, pharmacyID uuid.UUID, filters shared.ListFilters) ([]Customer, int, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE pharmacy_id = $1`
	args := []any{pharmacyID}
	argCount := 1

	countQuery := `SELECT COUNT(*) FROM customers WHERE pharmacy_id = $1`
	countArgs := []any{pharmacyID}

	if filters.Search != "" {
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		query += ` AND (name ILIKE ` + placeholder + ` OR phone ILIKE ` + placeholder + ` OR email ILIKE ` + placeholder + `)`
		countQuery += ` AND (name ILIKE $2 OR phone ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+filters.Search+"%")
		countArgs = append(countArgs, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dir := "ASC"
	if filters.SortDir == "desc" {
		dir = "DESC"
	}
	switch filters.SortBy {
	case "created_at":
		query += ` ORDER BY created_at ` + dir
	default:
		query += ` ORDER BY name ` + dir
	}

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

	var items []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *repository) ListAll(ctx context.Context, pharmacyID uuid.UUID) ([]Customer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE pharmacy_id = $1 ORDER BY name ASC`,
		pharmacyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, pharmacyID, id uuid.UUID) (Customer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE pharmacy_id = $1 AND id = $2`,
		pharmacyID, id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, shared.ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

func (r *repository) Create(ctx context.Context, customer Customer) (Customer, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx,
		`INSERT INTO customers (pharmacy_id, name, phone, email, address, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7) RETURNING id`,
		customer.PharmacyID, customer.Name, customer.Phone, customer.Email,
		customer.Address, customer.Notes, now).Scan(&customer.ID)
	if err != nil {
		return Customer{}, err
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now
	return customer, nil
}

func (r *repository) Update(ctx context.Context, pharmacyID, id uuid.UUID, customer Customer) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE customers SET name = $1, phone = $2, email = $3, address = $4, notes = $5, updated_at = $6
		 WHERE pharmacy_id = $7 AND id = $8`,
		customer.Name, customer.Phone, customer.Email, customer.Address, customer.Notes,
		time.Now(), pharmacyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, pharmacyID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE pharmacy_id = $1 AND id = $2`, pharmacyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
