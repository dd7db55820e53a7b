package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/shared"
)

// ProductLookup is the slice of the product service the sales flow needs.
type ProductLookup interface {
	Get(ctx context.Context, id uuid.UUID) (products.Product, error)
}

// Service provides business logic for sales operations.
type Service struct {
	repo     Repository
	products ProductLookup
	audit    *shared.AuditLogger
	onChange func(context.Context)
}

func NewService(repo Repository, productLookup ProductLookup, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, products: productLookup, audit: audit}
}

// OnChange registers a hook invoked after any write that alters revenue or
// stock, so cached reports can be invalidated without importing them here.
func (s *Service) OnChange(fn func(context.Context)) {
	s.onChange = fn
}

func (s *Service) notifyChange(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

// recordAudit writes an operational trail entry. Audit failures never fail
// the business operation.
func (s *Service) recordAudit(ctx context.Context, pharmacyID uuid.UUID, action, saleID string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		PharmacyID: pharmacyID,
		ActorID:    shared.ActorFromContext(ctx),
		Action:     action,
		Entity:     "sale",
		EntityID:   saleID,
	})
}

func tenant(ctx context.Context) (uuid.UUID, error) {
	id := shared.TenantFromContext(ctx)
	if id == uuid.Nil {
		return uuid.Nil, shared.ErrNotAuthenticated
	}
	return id, nil
}

// CreateSaleItemInput is one requested invoice line.
type CreateSaleItemInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// CreateSaleInput carries the fields for a new invoice.
type CreateSaleInput struct {
	SaleDate      time.Time
	CustomerID    *uuid.UUID
	Discount      float64
	PaymentMethod string
	PaymentStatus string
	Notes         string
	Items         []CreateSaleItemInput
}

// Create prices the requested lines from the current catalog, checks stock
// for completed sales and writes the invoice atomically.
func (s *Service) Create(ctx context.Context, input CreateSaleInput) (Sale, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return Sale{}, err
	}
	if err := validateInput(input); err != nil {
		return Sale{}, err
	}

	items := make([]SaleItem, 0, len(input.Items))
	for _, line := range input.Items {
		product, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			return Sale{}, shared.NewValidationError("items", "product not found: "+line.ProductID.String())
		}
		if input.PaymentStatus == PaymentStatusCompleted && product.StockQuantity < line.Quantity {
			return Sale{}, shared.NewValidationError("items",
				fmt.Sprintf("insufficient stock for %s: %d available", product.Name, product.StockQuantity))
		}
		productID := product.ID
		items = append(items, SaleItem{
			ProductID:   &productID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			TotalPrice:  product.Price * float64(line.Quantity),
		})
	}

	total, final := CalculateTotals(items, input.Discount)

	saleDate := input.SaleDate
	if saleDate.IsZero() {
		saleDate = time.Now()
	}

	invoiceNumber, err := s.repo.GenerateInvoiceNumber(ctx, pharmacyID, saleDate)
	if err != nil {
		return Sale{}, fmt.Errorf("generate invoice number: %w", err)
	}

	sale := Sale{
		PharmacyID:    pharmacyID,
		InvoiceNumber: invoiceNumber,
		SaleDate:      saleDate,
		CustomerID:    input.CustomerID,
		TotalAmount:   total,
		Discount:      input.Discount,
		FinalAmount:   final,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: input.PaymentStatus,
		Notes:         input.Notes,
		Items:         items,
	}

	created, err := s.repo.CreateWithItems(ctx, sale)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return Sale{}, shared.NewValidationError("invoice_number", "invoice number already exists, please retry")
		}
		return Sale{}, err
	}
	s.recordAudit(ctx, pharmacyID, "sale.create", created.ID.String())
	s.notifyChange(ctx)
	return created, nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]Sale, int, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, pharmacyID, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Sale, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return Sale{}, err
	}
	if id == uuid.Nil {
		return Sale{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, pharmacyID, id)
}

// MarkPaid flips a pending sale to completed. Pending sales never touched
// inventory at creation time, so completing one deducts stock now.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) error {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return err
	}
	sale, err := s.repo.Get(ctx, pharmacyID, id)
	if err != nil {
		return err
	}
	if sale.PaymentStatus != PaymentStatusPending {
		return shared.NewValidationError("payment_status", "only pending sales can be marked paid")
	}
	if err := s.repo.CompleteAndDeductStock(ctx, pharmacyID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, pharmacyID, "sale.mark_paid", id.String())
	s.notifyChange(ctx)
	return nil
}

// Cancel voids a sale and returns its quantities to stock.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return err
	}
	sale, err := s.repo.Get(ctx, pharmacyID, id)
	if err != nil {
		return err
	}
	if sale.PaymentStatus == PaymentStatusCancelled {
		return shared.NewValidationError("payment_status", "sale is already cancelled")
	}
	if err := s.repo.CancelAndRestock(ctx, pharmacyID, id); err != nil {
		return err
	}
	s.recordAudit(ctx, pharmacyID, "sale.cancel", id.String())
	s.notifyChange(ctx)
	return nil
}

// ListWithItemsSince exposes sale history with lines for reporting.
func (s *Service) ListWithItemsSince(ctx context.Context, since time.Time) ([]Sale, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.ListWithItemsSince(ctx, pharmacyID, since)
}

func validateInput(input CreateSaleInput) error {
	fields := map[string]string{}
	if len(input.Items) == 0 {
		fields["items"] = "a sale needs at least one item"
	}
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			fields["items"] = "item quantity must be positive"
			break
		}
	}
	if input.Discount < 0 {
		fields["discount"] = "discount cannot be negative"
	}
	if !ValidPaymentMethod(input.PaymentMethod) {
		fields["payment_method"] = "unknown payment method"
	}
	if !ValidPaymentStatus(input.PaymentStatus) {
		fields["payment_status"] = "unknown payment status"
	}
	if len(fields) == 0 {
		return nil
	}
	return &shared.ValidationError{Fields: fields}
}
