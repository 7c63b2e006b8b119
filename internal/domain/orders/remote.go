package orders

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Remote order value objects
// ---------------------------------------------------------------------------

// RemoteOrder is one order record as delivered by the order source,
// including nested fulfillment, line-item, and address data. Monetary
// fields keep the source's string representation; parsing happens at
// reconciliation time so a malformed value poisons one record, not the
// whole page.
type RemoteOrder struct {
	// ID is the remote order identifier. Unique and immutable.
	ID string
	// Name is the display order number, possibly carrying a "#" prefix.
	Name string
	// OrderNumber is the numeric order number, used when Name is empty.
	OrderNumber int64

	Email string
	Phone string

	Currency          string
	FinancialStatus   string
	FulfillmentStatus string

	TotalPrice    string
	SubtotalPrice string
	TotalTax      string

	Note           string
	NoteAttributes string

	ShippingAddress *RemoteAddress
	BillingAddress  *RemoteAddress
	Customer        *RemoteCustomer

	ShippingLines []RemoteShippingLine
	Fulfillments  []RemoteFulfillment
	LineItems     []RemoteLineItem

	CreatedAt    *time.Time
	UpdatedAt    *time.Time
	CancelledAt  *time.Time
	CancelReason string
}

// RemoteAddress carries the name fields used for customer-name derivation
// plus the verbatim JSON payload that is mirrored as an opaque blob.
type RemoteAddress struct {
	Name      string
	FirstName string
	LastName  string
	// Raw is the full address payload as received.
	Raw string
}

// RemoteCustomer is the customer profile attached to a remote order.
type RemoteCustomer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// RemoteShippingLine is one shipping charge on a remote order.
type RemoteShippingLine struct {
	Title string
	Price string
}

// RemoteFulfillment is one fulfillment record on a remote order.
type RemoteFulfillment struct {
	TrackingNumber  string
	TrackingNumbers []string
}

// RemoteLineItem is one product line on a remote order.
type RemoteLineItem struct {
	ID           string
	SKU          string
	ProductID    string
	VariantID    string
	Title        string
	VariantTitle string

	Quantity            int
	Price               string
	DiscountAllocations []RemoteDiscountAllocation

	FulfillableQuantity int
	FulfillmentStatus   string
	RequiresShipping    bool
	Grams               int64

	Properties []RemoteProperty
}

// RemoteDiscountAllocation is one discount applied to a line item.
type RemoteDiscountAllocation struct {
	Amount string
}

// RemoteProperty is a customer-supplied name/value pair on a line item.
type RemoteProperty struct {
	Name  string
	Value string
}

// ---------------------------------------------------------------------------
// Derivations
// ---------------------------------------------------------------------------

// CustomerName derives a display name, trying the shipping address, then
// the billing address, then the customer profile.
func (r *RemoteOrder) CustomerName() string {
	if name := r.ShippingAddress.displayName(); name != "" {
		return name
	}
	if name := r.BillingAddress.displayName(); name != "" {
		return name
	}
	if r.Customer != nil {
		if name := joinName(r.Customer.FirstName, r.Customer.LastName); name != "" {
			return name
		}
	}
	return UnknownCustomerName
}

// CustomerEmail returns the order-level email, falling back to the
// customer profile when the order carries none.
func (r *RemoteOrder) CustomerEmail() string {
	if r.Email != "" {
		return r.Email
	}
	if r.Customer != nil {
		return r.Customer.Email
	}
	return ""
}

// CustomerPhone returns the order-level phone, falling back to the
// customer profile when the order carries none.
func (r *RemoteOrder) CustomerPhone() string {
	if r.Phone != "" {
		return r.Phone
	}
	if r.Customer != nil {
		return r.Customer.Phone
	}
	return ""
}

func (a *RemoteAddress) displayName() string {
	if a == nil {
		return ""
	}
	if a.Name != "" {
		return a.Name
	}
	return joinName(a.FirstName, a.LastName)
}

func joinName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// TrackingNumber returns the first non-empty tracking value found among
// the fulfillment records, or empty when none exists.
func (r *RemoteOrder) TrackingNumber() string {
	for _, f := range r.Fulfillments {
		if f.TrackingNumber != "" {
			return f.TrackingNumber
		}
		for _, tn := range f.TrackingNumbers {
			if tn != "" {
				return tn
			}
		}
	}
	return ""
}

// DisplayOrderNumber returns the "#"-stripped order name, falling back to
// the numeric order number when the name is blank.
func (r *RemoteOrder) DisplayOrderNumber() string {
	name := strings.TrimSpace(strings.ReplaceAll(r.Name, "#", ""))
	if name != "" {
		return name
	}
	if r.OrderNumber != 0 {
		return strconv.FormatInt(r.OrderNumber, 10)
	}
	return ""
}

// ShippingTotal sums the shipping-line charges. A malformed charge makes
// the whole record malformed.
func (r *RemoteOrder) ShippingTotal() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, line := range r.ShippingLines {
		amount, err := ParseAmount(line.Price)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: shipping line price %q", ErrMalformedRecord, line.Price)
		}
		total = total.Add(amount)
	}
	return total, nil
}

// DiscountTotal sums the discount allocations of a line item.
func (li *RemoteLineItem) DiscountTotal() (decimal.Decimal, error) {
	total := decimal.Zero
	for _, d := range li.DiscountAllocations {
		amount, err := ParseAmount(d.Amount)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: discount amount %q", ErrMalformedRecord, d.Amount)
		}
		total = total.Add(amount)
	}
	return total, nil
}

// ParseAmount parses a monetary string from the source. Empty means zero;
// anything unparseable is an error for the caller to classify.
func ParseAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}
