// Package reservation validates requested quantities against stock and
// decrements the counters when an order commits.
package reservation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	product "github.com/angelmondragon/storefront-backend/internal/products"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const (
	ReasonInsufficientStock      = "insufficient_stock"
	ReasonBackorderLimitExceeded = "backorder_limit_exceeded"
)

// Request is one ordered line. LineID points the error back at the cart item;
// leave it nil for a quantity that is not in the cart yet.
type Request struct {
	LineID   uuid.UUID
	Ref      product.Ref
	Name     string
	Quantity decimal.Decimal
}

// Check applies the stock policy to a single requested quantity. Fractional
// backorder quantities round up before they are compared with the limit.
func Check(req Request, stock product.Stock) error {
	field := "quantity"
	if req.LineID != uuid.Nil {
		field = fmt.Sprintf("items.%s.quantity", req.LineID)
	}
	if !req.Quantity.IsPositive() {
		return pkgerrors.FieldErrors("quantity must be positive", map[string]string{field: "must be greater than zero"})
	}

	available := stock.Available
	if !stock.AllowBackorder {
		if req.Quantity.GreaterThan(available) {
			return pkgerrors.Violation(field, ReasonInsufficientStock, fmt.Sprintf("Stock insufficient for %s", req.Name))
		}
		return nil
	}

	if stock.BackorderLimit <= 0 {
		return nil
	}
	backorder := req.Quantity.Sub(decimal.Max(available, decimal.Zero)).Ceil()
	if backorder.GreaterThan(decimal.NewFromInt(int64(stock.BackorderLimit))) {
		return pkgerrors.Violation(field, ReasonBackorderLimitExceeded,
			fmt.Sprintf("Backorder limit exceeded for %s", req.Name))
	}
	return nil
}

// Service decrements stock inside the order transaction.
type Service struct {
	products product.Repository
}

func NewService(products product.Repository) (*Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &Service{products: products}, nil
}

// Reserve locks the stock rows, re-checks every request against the locked
// values and decrements them. Requests for the same row are summed first so
// two cart lines cannot each pass the check on their own.
func (s *Service) Reserve(ctx context.Context, tx *gorm.DB, requests []Request) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "stock reservation requires a transaction")
	}
	merged, order := merge(requests)
	if len(order) == 0 {
		return nil
	}

	repo := s.products.WithTx(tx)
	items, err := repo.LoadItems(ctx, order, true)
	if err != nil {
		return err
	}

	for _, ref := range order {
		req := merged[ref]
		item, ok := items[ref]
		if !ok || !item.Active() {
			return pkgerrors.Violation(fmt.Sprintf("items.%s", req.LineID), "product_unavailable",
				fmt.Sprintf("%s is no longer available", req.Name))
		}
		if err := Check(req, item.Stock()); err != nil {
			return err
		}
	}

	for _, ref := range order {
		req := merged[ref]
		current := items[ref].Stock().Available
		ok, err := repo.AdjustStock(ctx, ref, current, req.Quantity.Neg())
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("stock for %s changed during checkout", req.Name))
		}
	}
	return nil
}

func merge(requests []Request) (map[product.Ref]Request, []product.Ref) {
	merged := make(map[product.Ref]Request, len(requests))
	order := make([]product.Ref, 0, len(requests))
	for _, req := range requests {
		existing, ok := merged[req.Ref]
		if !ok {
			merged[req.Ref] = req
			order = append(order, req.Ref)
			continue
		}
		existing.Quantity = existing.Quantity.Add(req.Quantity)
		merged[req.Ref] = existing
	}
	return merged, order
}
