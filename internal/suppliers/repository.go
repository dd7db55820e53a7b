package suppliers

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
	List(ctx context.Context, pharmacyID uuid.UUID, filters shared.ListFilters) ([]Supplier, int, error)
	ListAll(ctx context.Context, pharmacyID uuid.UUID) ([]Supplier, error)
	Get(ctx context.Context, pharmacyID, id uuid.UUID) (Supplier, error)
	Create(ctx context.Context, supplier Supplier) (Supplier, error)
	Update(ctx context.Context, pharmacyID, id uuid.UUID, supplier Supplier) error
	Delete(ctx context.Context, pharmacyID, id uuid.UUID) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const supplierColumns = `id, pharmacy_id, name, contact_person, phone, email, address, notes, created_at, updated_at`

func scanSupplier(row pgx.Row) (Supplier, error) {
	var s Supplier
	err := row.Scan(&s.ID, &s.PharmacyID, &s.Name, &s.ContactPerson, &s.Phone, &s.Email,
		&s.Address, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) List(ctx context.Context, pharmacyID uuid.UUID, filters shared.ListFilters) ([]Supplier, int, error) {
	query := `SELECT ` + supplierColumns + ` FROM suppliers WHERE pharmacy_id = $1`
	args := []any{pharmacyID}
	argCount := 1

	countQuery := `SELECT COUNT(*) FROM suppliers WHERE pharmacy_id = $1`
	countArgs := []any{pharmacyID}

	if filters.Search != "" {
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		query += ` AND (name ILIKE ` + placeholder + ` OR contact_person ILIKE ` + placeholder + ` OR phone ILIKE ` + placeholder + `)`
		countQuery += ` AND (name ILIKE $2 OR contact_person ILIKE $2 OR phone ILIKE $2)`
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

	var items []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *repository) ListAll(ctx context.Context, pharmacyID uuid.UUID) ([]Supplier, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE pharmacy_id = $1 ORDER BY name ASC`,
		pharmacyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *repository) Get(ctx context.Context, pharmacyID, id uuid.UUID) (Supplier, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+supplierColumns+` FROM suppliers WHERE pharmacy_id = $1 AND id = $2`,
		pharmacyID, id)
	s, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Supplier{}, shared.ErrNotFound
		}
		return Supplier{}, err
	}
	return s, nil
}

func (r *repository) Create(ctx context.Context, supplier Supplier) (Supplier, error) {
	now := time.Now()
	err := r.db.QueryRow(ctx,
		`INSERT INTO suppliers (pharmacy_id, name, contact_person, phone, email, address, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8) RETURNING id`,
		supplier.PharmacyID, supplier.Name, supplier.ContactPerson, supplier.Phone,
		supplier.Email, supplier.Address, supplier.Notes, now).Scan(&supplier.ID)
	if err != nil {
		return Supplier{}, err
	}
	supplier.CreatedAt = now
	supplier.UpdatedAt = now
	return supplier, nil
}

func (r *repository) Update(ctx context.Context, pharmacyID, id uuid.UUID, supplier Supplier) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE suppliers SET name = $1, contact_person = $2, phone = $3, email = $4, address = $5, notes = $6, updated_at = $7
		 WHERE pharmacy_id = $8 AND id = $9`,
		supplier.Name, supplier.ContactPerson, supplier.Phone, supplier.Email,
		supplier.Address, supplier.Notes, time.Now(), pharmacyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, pharmacyID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM suppliers WHERE pharmacy_id = $1 AND id = $2`, pharmacyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
