package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnknownCustomerName is stored when no name can be derived from the
// shipping address, billing address, or customer profile.
const UnknownCustomerName = "Unknown Customer"

// ReservedPropertyPrefix marks line-item properties used internally by the
// remote platform. Properties whose name starts with this prefix are never
// persisted.
const ReservedPropertyPrefix = "_"

// DefaultCurrency is stored when the remote record carries no currency.
const DefaultCurrency = "CAD"

// Order is one remote order mirrored locally. Exactly one Order row exists
// per remote identifier at any time; resyncs update it in place.
type Order struct {
	// ID is the local identifier, opaque and stable across resyncs.
	ID uuid.UUID
	// RemoteOrderID is the unique, immutable identifier on the remote platform.
	RemoteOrderID string
	// OrderNumber is the human-facing order number ("#"-prefix stripped).
	OrderNumber string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	// ShippingAddress and BillingAddress hold the remote address payloads
	// verbatim as JSON. The mirror treats them as opaque blobs.
	ShippingAddress string
	BillingAddress  string

	// Note and NoteAttributes mirror the remote free-form note fields.
	Note           string
	NoteAttributes string

	SubtotalPrice decimal.Decimal
	TotalTax      decimal.Decimal
	TotalShipping decimal.Decimal
	TotalPrice    decimal.Decimal
	Currency      string

	FinancialStatus   string
	FulfillmentStatus string

	// TrackingNumber is the first non-empty tracking value found among the
	// remote fulfillment records. Empty when the order has not shipped.
	TrackingNumber string

	// TotalWeightGrams is derived: sum of quantity x grams over line items.
	TotalWeightGrams int64

	RemoteCreatedAt *time.Time
	RemoteUpdatedAt *time.Time
	CancelledAt     *time.Time
	CancelReason    string

	// ScannedStatus is set when a parcel with this order's tracking number
	// passes the scanner.
	ScannedStatus bool
	ScannedAt     *time.Time

	SyncedAt  time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	Items []LineItem
}

// LineItem is one product line within an Order, owned exclusively by it.
// The full set of line items is replaced on every resync of the order.
type LineItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	RemoteLineItemID string

	SKU          string
	ProductID    string
	VariantID    string
	ProductTitle string
	VariantTitle string

	Quantity      int
	Price         decimal.Decimal
	TotalDiscount decimal.Decimal

	FulfillableQuantity int
	FulfillmentStatus   string
	RequiresShipping    bool

	// Grams is the unit weight of this line's variant.
	Grams int64

	Options []LineItemOption
}

// LineItemOption is a customer-supplied name/value property attached to a
// line item. Reserved-prefix properties are filtered before persistence.
type LineItemOption struct {
	ID         uuid.UUID
	LineItemID uuid.UUID
	Name       string
	Value      string
}

// TotalWeightGrams derives an order's total weight from its line items.
func TotalWeightGrams(items []LineItem) int64 {
	var total int64
	for _, item := range items {
		total += int64(item.Quantity) * item.Grams
	}
	return total
}
