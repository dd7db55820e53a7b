package procurement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/novapharm/novapharm/internal/products"
	"github.com/novapharm/novapharm/internal/shared"
)

// ProductLookup is the slice of the product service procurement needs.
type ProductLookup interface {
	Get(ctx context.Context, id uuid.UUID) (products.Product, error)
}

// Service provides business logic for purchase orders.
type Service struct {
	repo     Repository
	products ProductLookup
}

func NewService(repo Repository, productLookup ProductLookup) *Service {
	return &Service{repo: repo, products: productLookup}
}

func tenant(ctx context.Context) (uuid.UUID, error) {
	id := shared.TenantFromContext(ctx)
	if id == uuid.Nil {
		return uuid.Nil, shared.ErrNotAuthenticated
	}
	return id, nil
}

// CreateItemInput is one requested product line.
type CreateItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitCost  float64
}

// CreateInput carries the fields for a new purchase order.
type CreateInput struct {
	SupplierID   uuid.UUID
	OrderDate    time.Time
	ExpectedDate *time.Time
	Notes        string
	Items        []CreateItemInput
}

// Create prices the requested lines and writes the order as a draft.
// Lines default their unit cost to the product's current cost price.
func (s *Service) Create(ctx context.Context, input CreateInput) (PurchaseOrder, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if err := validateInput(input); err != nil {
		return PurchaseOrder{}, err
	}

	var totalCost float64
	items := make([]PurchaseOrderItem, 0, len(input.Items))
	for _, line := range input.Items {
		product, err := s.products.Get(ctx, line.ProductID)
		if err != nil {
			return PurchaseOrder{}, shared.NewValidationError("items", "product not found: "+line.ProductID.String())
		}
		unitCost := line.UnitCost
		if unitCost <= 0 {
			unitCost = product.CostPrice
		}
		lineTotal := unitCost * float64(line.Quantity)
		totalCost += lineTotal
		productID := product.ID
		items = append(items, PurchaseOrderItem{
			ProductID:   &productID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitCost:    unitCost,
			TotalCost:   lineTotal,
		})
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	orderNumber, err := s.repo.GenerateOrderNumber(ctx, pharmacyID, orderDate)
	if err != nil {
		return PurchaseOrder{}, fmt.Errorf("generate order number: %w", err)
	}

	order := PurchaseOrder{
		PharmacyID:   pharmacyID,
		SupplierID:   input.SupplierID,
		OrderNumber:  orderNumber,
		Status:       StatusDraft,
		OrderDate:    orderDate,
		ExpectedDate: input.ExpectedDate,
		TotalCost:    totalCost,
		Notes:        input.Notes,
		Items:        items,
	}

	created, err := s.repo.CreateWithItems(ctx, order)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return PurchaseOrder{}, shared.NewValidationError("order_number", "order number already exists, please retry")
		}
		return PurchaseOrder{}, err
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, filters ListFilters) ([]PurchaseOrder, int, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, pharmacyID, filters)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if id == uuid.Nil {
		return PurchaseOrder{}, shared.ErrNotFound
	}
	return s.repo.Get(ctx, pharmacyID, id)
}

// Submit moves a draft order to ordered.
func (s *Service) Submit(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, StatusDraft, StatusOrdered, "only draft orders can be submitted")
}

// Cancel voids a draft or ordered order.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return err
	}
	order, err := s.repo.Get(ctx, pharmacyID, id)
	if err != nil {
		return err
	}
	if order.Status == StatusReceived || order.Status == StatusCancelled {
		return shared.NewValidationError("status", "cannot cancel a "+order.Status+" order")
	}
	return s.repo.UpdateStatus(ctx, pharmacyID, id, StatusCancelled)
}

// Receive marks an ordered purchase order received, which restocks the
// ordered products.
func (s *Service) Receive(ctx context.Context, id uuid.UUID) error {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return err
	}
	return s.repo.ReceiveAndRestock(ctx, pharmacyID, id)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to, message string) error {
	pharmacyID, err := tenant(ctx)
	if err != nil {
		return err
	}
	order, err := s.repo.Get(ctx, pharmacyID, id)
	if err != nil {
		return err
	}
	if order.Status != from {
		return shared.NewValidationError("status", message)
	}
	return s.repo.UpdateStatus(ctx, pharmacyID, id, to)
}

func validateInput(input CreateInput) error {
	fields := map[string]string{}
	if input.SupplierID == uuid.Nil {
		fields["supplier_id"] = "a supplier is required"
	}
	if len(input.Items) == 0 {
		fields["items"] = "an order needs at least one item"
	}
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			fields["items"] = "item quantity must be positive"
			break
		}
		if line.UnitCost < 0 {
			fields["items"] = "item cost cannot be negative"
			break
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &shared.ValidationError{Fields: fields}
}
