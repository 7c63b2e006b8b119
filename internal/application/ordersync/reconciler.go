package ordersync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/parcelscan/backend/internal/domain/orders"
)

// Reconciler converts one remote order record into the local mirror rows.
// Reconciliation is idempotent: applying the same record any number of
// times converges on a single order with exactly the record's line items.
type Reconciler struct {
	now func() time.Time
}

// NewReconciler creates a new Reconciler
func NewReconciler() *Reconciler {
	return &Reconciler{now: time.Now}
}

// Reconcile upserts the order identified by record's remote ID, replaces
// its line items, and refreshes the derived total weight. Local-only state
// (scanned flag, local IDs, creation time) survives the resync.
func (r *Reconciler) Reconcile(ctx context.Context, repo orders.OrderRepository, record *orders.RemoteOrder) (uuid.UUID, error) {
	if record.ID == "" {
		return uuid.Nil, fmt.Errorf("%w: missing remote order id", orders.ErrMalformedRecord)
	}

	order, err := r.buildOrder(record)
	if err != nil {
		return uuid.Nil, err
	}

	existing, err := repo.FindByRemoteID(ctx, record.ID)
	switch {
	case err == nil:
		order.ID = existing.ID
		order.CreatedAt = existing.CreatedAt
		order.ScannedStatus = existing.ScannedStatus
		order.ScannedAt = existing.ScannedAt
	case err == orders.ErrOrderNotFound:
		order.ID = uuid.New()
		order.CreatedAt = order.SyncedAt
	default:
		return uuid.Nil, err
	}

	items, err := r.buildLineItems(order.ID, record)
	if err != nil {
		return uuid.Nil, err
	}
	order.TotalWeightGrams = orders.TotalWeightGrams(items)

	if err := repo.Save(ctx, order); err != nil {
		return uuid.Nil, err
	}
	if err := repo.ReplaceLineItems(ctx, order.ID, items); err != nil {
		return uuid.Nil, err
	}
	return order.ID, nil
}

func (r *Reconciler) buildOrder(record *orders.RemoteOrder) (*orders.Order, error) {
	subtotal, err := parseMoney("subtotal_price", record.SubtotalPrice)
	if err != nil {
		return nil, err
	}
	tax, err := parseMoney("total_tax", record.TotalTax)
	if err != nil {
		return nil, err
	}
	total, err := parseMoney("total_price", record.TotalPrice)
	if err != nil {
		return nil, err
	}
	shipping, err := record.ShippingTotal()
	if err != nil {
		return nil, err
	}

	currency := record.Currency
	if currency == "" {
		currency = orders.DefaultCurrency
	}

	now := r.now().UTC()
	return &orders.Order{
		RemoteOrderID:     record.ID,
		OrderNumber:       record.DisplayOrderNumber(),
		CustomerName:      record.CustomerName(),
		CustomerEmail:     record.CustomerEmail(),
		CustomerPhone:     record.CustomerPhone(),
		ShippingAddress:   rawAddress(record.ShippingAddress),
		BillingAddress:    rawAddress(record.BillingAddress),
		Note:              record.Note,
		NoteAttributes:    record.NoteAttributes,
		SubtotalPrice:     subtotal,
		TotalTax:          tax,
		TotalShipping:     shipping,
		TotalPrice:        total,
		Currency:          currency,
		FinancialStatus:   record.FinancialStatus,
		FulfillmentStatus: record.FulfillmentStatus,
		TrackingNumber:    record.TrackingNumber(),
		RemoteCreatedAt:   record.CreatedAt,
		RemoteUpdatedAt:   record.UpdatedAt,
		CancelledAt:       record.CancelledAt,
		CancelReason:      record.CancelReason,
		SyncedAt:          now,
		UpdatedAt:         now,
	}, nil
}

func (r *Reconciler) buildLineItems(orderID uuid.UUID, record *orders.RemoteOrder) ([]orders.LineItem, error) {
	items := make([]orders.LineItem, 0, len(record.LineItems))
	for i := range record.LineItems {
		remote := &record.LineItems[i]

		price, err := parseMoney("line item price", remote.Price)
		if err != nil {
			return nil, err
		}
		discount, err := remote.DiscountTotal()
		if err != nil {
			return nil, err
		}

		item := orders.LineItem{
			ID:                  uuid.New(),
			OrderID:             orderID,
			RemoteLineItemID:    remote.ID,
			SKU:                 remote.SKU,
			ProductID:           remote.ProductID,
			VariantID:           remote.VariantID,
			ProductTitle:        remote.Title,
			VariantTitle:        remote.VariantTitle,
			Quantity:            remote.Quantity,
			Price:               price,
			TotalDiscount:       discount,
			FulfillableQuantity: remote.FulfillableQuantity,
			FulfillmentStatus:   remote.FulfillmentStatus,
			RequiresShipping:    remote.RequiresShipping,
			Grams:               remote.Grams,
		}
		for _, prop := range remote.Properties {
			if prop.Name == "" || prop.Value == "" || strings.HasPrefix(prop.Name, orders.ReservedPropertyPrefix) {
				continue
			}
			item.Options = append(item.Options, orders.LineItemOption{
				ID:         uuid.New(),
				LineItemID: item.ID,
				Name:       prop.Name,
				Value:      prop.Value,
			})
		}
		items = append(items, item)
	}
	return items, nil
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	amount, err := orders.ParseAmount(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q", orders.ErrMalformedRecord, field, value)
	}
	return amount, nil
}

func rawAddress(addr *orders.RemoteAddress) string {
	if addr == nil {
		return ""
	}
	return addr.Raw
}
