package sales

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/novapharm/novapharm/internal/shared"
)

// ListFilters narrows a sale listing. Zero values are ignored.
type ListFilters struct {
	Page          int
	Limit         int
	Search        string
	PaymentStatus string
	From          *time.Time
	To            *time.Time
}

// Repository defines persistence operations for sales.
type Repository interface {
	List(ctx context.Context, pharmacyID uuid.UUID, filters ListFilters) ([]Sale, int, error)
	Get(ctx context.Context, pharmacyID, id uuid.UUID) (Sale, error)
	CreateWithItems(ctx context.Context, sale Sale) (Sale, error)
	CompleteAndDeductStock(ctx context.Context, pharmacyID, id uuid.UUID) error
	CancelAndRestock(ctx context.Context, pharmacyID, id uuid.UUID) error
	ListWithItemsSince(ctx context.Context, pharmacyID uuid.UUID, since time.Time) ([]Sale, error)
	GenerateInvoiceNumber(ctx context.Context, pharmacyID uuid.UUID, date time.Time) (string, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const saleColumns = `s.id, s.pharmacy_id, s.invoice_number, s.sale_date, s.customer_id,
	COALESCE(c.name, ''), s.total_amount, s.discount, s.final_amount,
	s.payment_method, s.payment_status, s.notes, s.created_at, s.updated_at`

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.PharmacyID, &s.InvoiceNumber, &s.SaleDate, &s.CustomerID,
		&s.CustomerName, &s.TotalAmount, &s.Discount, &s.FinalAmount,
		&s.PaymentMethod, &s.PaymentStatus, &s.Notes, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *repository) List(ctx context.Context, pharmacyID uuid.UUID, filters ListFilters) ([]Sale, int, error) {
	base := ` FROM sales s LEFT JOIN customers c ON c.id = s.customer_id WHERE s.pharmacy_id = $1`
	args := []any{pharmacyID}
	argCount := 1

	if filters.Search != "" {
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		base += ` AND (s.invoice_number ILIKE ` + placeholder + ` OR c.name ILIKE ` + placeholder + `)`
		args = append(args, "%"+filters.Search+"%")
	}
	if filters.PaymentStatus != "" {
		argCount++
		base += ` AND s.payment_status = $` + strconv.Itoa(argCount)
		args = append(args, filters.PaymentStatus)
	}
	if filters.From != nil {
		argCount++
		base += ` AND s.sale_date >= $` + strconv.Itoa(argCount)
		args = append(args, *filters.From)
	}
	if filters.To != nil {
		argCount++
		base += ` AND s.sale_date <= $` + strconv.Itoa(argCount)
		args = append(args, *filters.To)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + saleColumns + base + ` ORDER BY s.sale_date DESC, s.created_at DESC`
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

	var items []Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, pharmacyID, id uuid.UUID) (Sale, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+saleColumns+` FROM sales s LEFT JOIN customers c ON c.id = s.customer_id
		 WHERE s.pharmacy_id = $1 AND s.id = $2`,
		pharmacyID, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, shared.ErrNotFound
		}
		return Sale{}, err
	}

	items, err := r.loadItems(ctx, sale.ID)
	if err != nil {
		return Sale{}, err
	}
	sale.Items = items
	return sale, nil
}

func (r *repository) loadItems(ctx context.Context, saleID uuid.UUID) ([]SaleItem, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, sale_id, product_id, product_name, quantity, unit_price, total_price
		 FROM sale_items WHERE sale_id = $1 ORDER BY product_name ASC`,
		saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []SaleItem
	for rows.Next() {
		var it SaleItem
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateWithItems inserts the sale header and its lines in one transaction.
// Completed sales also decrement product stock so the invoice and inventory
// can never disagree.
func (r *repository) CreateWithItems(ctx context.Context, sale Sale) (Sale, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Sale{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	err = tx.QueryRow(ctx,
		`INSERT INTO sales (pharmacy_id, invoice_number, sale_date, customer_id, total_amount, discount, final_amount, payment_method, payment_status, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11) RETURNING id`,
		sale.PharmacyID, sale.InvoiceNumber, sale.SaleDate, sale.CustomerID,
		sale.TotalAmount, sale.Discount, sale.FinalAmount,
		sale.PaymentMethod, sale.PaymentStatus, sale.Notes, now).Scan(&sale.ID)
	if err != nil {
		return Sale{}, err
	}
	sale.CreatedAt = now
	sale.UpdatedAt = now

	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = sale.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO sale_items (sale_id, product_id, product_name, quantity, unit_price, total_price)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			item.SaleID, item.ProductID, item.ProductName, item.Quantity,
			item.UnitPrice, item.TotalPrice).Scan(&item.ID)
		if err != nil {
			return Sale{}, fmt.Errorf("insert sale item: %w", err)
		}

		if sale.PaymentStatus == PaymentStatusCompleted && item.ProductID != nil {
			_, err = tx.Exec(ctx,
				`UPDATE products SET stock_quantity = GREATEST(stock_quantity - $1, 0), updated_at = NOW()
				 WHERE pharmacy_id = $2 AND id = $3`,
				item.Quantity, sale.PharmacyID, *item.ProductID)
			if err != nil {
				return Sale{}, fmt.Errorf("decrement stock: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Sale{}, err
	}
	return sale, nil
}

// CompleteAndDeductStock marks a pending sale completed and removes the sold
// quantities from stock in the same transaction.
func (r *repository) CompleteAndDeductStock(ctx context.Context, pharmacyID, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx,
		`SELECT payment_status FROM sales WHERE pharmacy_id = $1 AND id = $2 FOR UPDATE`,
		pharmacyID, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return err
	}

	if status == PaymentStatusPending {
		_, err = tx.Exec(ctx,
			`UPDATE products p SET stock_quantity = GREATEST(p.stock_quantity - si.quantity, 0), updated_at = NOW()
			 FROM sale_items si
			 WHERE si.sale_id = $1 AND si.product_id = p.id AND p.pharmacy_id = $2`,
			id, pharmacyID)
		if err != nil {
			return fmt.Errorf("deduct stock: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE sales SET payment_status = $1, updated_at = NOW() WHERE pharmacy_id = $2 AND id = $3`,
		PaymentStatusCompleted, pharmacyID, id)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CancelAndRestock marks a sale cancelled and puts sold quantities back into
// stock for lines whose product still exists.
func (r *repository) CancelAndRestock(ctx context.Context, pharmacyID, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx,
		`SELECT payment_status FROM sales WHERE pharmacy_id = $1 AND id = $2 FOR UPDATE`,
		pharmacyID, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return err
	}

	if status == PaymentStatusCompleted {
		_, err = tx.Exec(ctx,
			`UPDATE products p SET stock_quantity = p.stock_quantity + si.quantity, updated_at = NOW()
			 FROM sale_items si
			 WHERE si.sale_id = $1 AND si.product_id = p.id AND p.pharmacy_id = $2`,
			id, pharmacyID)
		if err != nil {
			return fmt.Errorf("restock: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE sales SET payment_status = $1, updated_at = NOW() WHERE pharmacy_id = $2 AND id = $3`,
		PaymentStatusCancelled, pharmacyID, id)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// ListWithItemsSince loads sales on or after the given instant together with
// their line items, for reporting.
func (r *repository) ListWithItemsSince(ctx context.Context, pharmacyID uuid.UUID, since time.Time) ([]Sale, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+saleColumns+` FROM sales s LEFT JOIN customers c ON c.id = s.customer_id
		 WHERE s.pharmacy_id = $1 AND s.sale_date >= $2
		 ORDER BY s.sale_date ASC`,
		pharmacyID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Sale
	index := map[uuid.UUID]int{}
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		index[s.ID] = len(list)
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]uuid.UUID, 0, len(list))
	for _, s := range list {
		ids = append(ids, s.ID)
	}

	itemRows, err := r.db.Query(ctx,
		`SELECT id, sale_id, product_id, product_name, quantity, unit_price, total_price
		 FROM sale_items WHERE sale_id = ANY($1)`,
		ids)
	if err != nil {
		return nil, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var it SaleItem
		if err := itemRows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, err
		}
		if pos, ok := index[it.SaleID]; ok {
			list[pos].Items = append(list[pos].Items, it)
		}
	}
	return list, itemRows.Err()
}

// GenerateInvoiceNumber produces the next sequential invoice number for the
// given day, such as INV-20260310-0004.
func (r *repository) GenerateInvoiceNumber(ctx context.Context, pharmacyID uuid.UUID, date time.Time) (string, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM sales WHERE pharmacy_id = $1 AND sale_date >= $2 AND sale_date < $3`,
		pharmacyID, dayStart, dayEnd).Scan(&count)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%04d", date.Format("20060102"), count+1), nil
}
