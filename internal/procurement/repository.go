package procurement

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

// ListFilters narrows a purchase order listing.
type ListFilters struct {
	Page   int
	Limit  int
	Status string
	Search string
}

// Repository defines persistence operations for purchase orders.
type Repository interface {
	List(ctx context.Context, pharmacyID uuid.UUID, filters ListFilters) ([]PurchaseOrder, int, error)
	Get(ctx context.Context, pharmacyID, id uuid.UUID) (PurchaseOrder, error)
	CreateWithItems(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error)
	UpdateStatus(ctx context.Context, pharmacyID, id uuid.UUID, status string) error
	ReceiveAndRestock(ctx context.Context, pharmacyID, id uuid.UUID) error
	GenerateOrderNumber(ctx context.Context, pharmacyID uuid.UUID, date time.Time) (string, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const orderColumns = `po.id, po.pharmacy_id, po.supplier_id, COALESCE(s.name, ''), po.order_number,
	po.status, po.order_date, po.expected_date, po.total_cost, po.notes, po.created_at, po.updated_at`

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var o PurchaseOrder
	err := row.Scan(&o.ID, &o.PharmacyID, &o.SupplierID, &o.SupplierName, &o.OrderNumber,
		&o.Status, &o.OrderDate, &o.ExpectedDate, &o.TotalCost, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *repository) List(ctx context.Context, pharmacyID uuid.UUID, filters ListFilters) ([]PurchaseOrder, int, error) {
	base := ` FROM purchase_orders po LEFT JOIN suppliers s ON s.id = po.supplier_id WHERE po.pharmacy_id = $1`
	args := []any{pharmacyID}
	argCount := 1

	if filters.Status != "" {
		argCount++
		base += ` AND po.status = $` + strconv.Itoa(argCount)
		args = append(args, filters.Status)
	}
	if filters.Search != "" {
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		base += ` AND (po.order_number ILIKE ` + placeholder + ` OR s.name ILIKE ` + placeholder + `)`
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + orderColumns + base + ` ORDER BY po.order_date DESC, po.created_at DESC`
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

	var orders []PurchaseOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, pharmacyID, id uuid.UUID) (PurchaseOrder, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders po LEFT JOIN suppliers s ON s.id = po.supplier_id
		 WHERE po.pharmacy_id = $1 AND po.id = $2`,
		pharmacyID, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, shared.ErrNotFound
		}
		return PurchaseOrder{}, err
	}

	itemRows, err := r.db.Query(ctx,
		`SELECT id, purchase_order_id, product_id, product_name, quantity, unit_cost, total_cost
		 FROM purchase_order_items WHERE purchase_order_id = $1 ORDER BY product_name ASC`,
		order.ID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var it PurchaseOrderItem
		if err := itemRows.Scan(&it.ID, &it.PurchaseOrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.UnitCost, &it.TotalCost); err != nil {
			return PurchaseOrder{}, err
		}
		order.Items = append(order.Items, it)
	}
	return order, itemRows.Err()
}

func (r *repository) CreateWithItems(ctx context.Context, order PurchaseOrder) (PurchaseOrder, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return PurchaseOrder{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	err = tx.QueryRow(ctx,
		`INSERT INTO purchase_orders (pharmacy_id, supplier_id, order_number, status, order_date, expected_date, total_cost, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9) RETURNING id`,
		order.PharmacyID, order.SupplierID, order.OrderNumber, order.Status,
		order.OrderDate, order.ExpectedDate, order.TotalCost, order.Notes, now).Scan(&order.ID)
	if err != nil {
		return PurchaseOrder{}, err
	}
	order.CreatedAt = now
	order.UpdatedAt = now

	for i := range order.Items {
		item := &order.Items[i]
		item.PurchaseOrderID = order.ID
		err = tx.QueryRow(ctx,
			`INSERT INTO purchase_order_items (purchase_order_id, product_id, product_name, quantity, unit_cost, total_cost)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			item.PurchaseOrderID, item.ProductID, item.ProductName,
			item.Quantity, item.UnitCost, item.TotalCost).Scan(&item.ID)
		if err != nil {
			return PurchaseOrder{}, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return PurchaseOrder{}, err
	}
	return order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, pharmacyID, id uuid.UUID, status string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE purchase_orders SET status = $1, updated_at = NOW() WHERE pharmacy_id = $2 AND id = $3`,
		status, pharmacyID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ReceiveAndRestock marks an order received and adds the ordered quantities
// to product stock in the same transaction.
func (r *repository) ReceiveAndRestock(ctx context.Context, pharmacyID, id uuid.UUID) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM purchase_orders WHERE pharmacy_id = $1 AND id = $2 FOR UPDATE`,
		pharmacyID, id).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return err
	}
	if status != StatusOrdered {
		return shared.NewValidationError("status", "only ordered purchase orders can be received")
	}

	_, err = tx.Exec(ctx,
		`UPDATE products p SET stock_quantity = p.stock_quantity + poi.quantity, updated_at = NOW()
		 FROM purchase_order_items poi
		 WHERE poi.purchase_order_id = $1 AND poi.product_id = p.id AND p.pharmacy_id = $2`,
		id, pharmacyID)
	if err != nil {
		return fmt.Errorf("restock: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE purchase_orders SET status = $1, updated_at = NOW() WHERE pharmacy_id = $2 AND id = $3`,
		StatusReceived, pharmacyID, id)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GenerateOrderNumber produces the next sequential order number for the
// given day, such as PO-20260310-0002.
func (r *repository) GenerateOrderNumber(ctx context.Context, pharmacyID uuid.UUID, date time.Time) (string, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM purchase_orders WHERE pharmacy_id = $1 AND order_date >= $2 AND order_date < $3`,
		pharmacyID, dayStart, dayEnd).Scan(&count)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("PO-%s-%04d", date.Format("20060102"), count+1), nil
}
