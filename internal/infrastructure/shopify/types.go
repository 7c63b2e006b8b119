package shopify

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/parcelscan/backend/internal/domain/orders"
)

// ordersResponse is the envelope of the orders listing endpoint.
type ordersResponse struct {
	Orders []wireOrder `json:"orders"`
}

// wireOrder mirrors the Admin API order payload, restricted to the fields
// the mirror projects.
type wireOrder struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	OrderNumber       int64              `json:"order_number"`
	Email             string             `json:"email"`
	Phone             string             `json:"phone"`
	Currency          string             `json:"currency"`
	FinancialStatus   string             `json:"financial_status"`
	FulfillmentStatus string             `json:"fulfillment_status"`
	TotalPrice        string             `json:"total_price"`
	SubtotalPrice     string             `json:"subtotal_price"`
	TotalTax          string             `json:"total_tax"`
	Note              string             `json:"note"`
	NoteAttributes    json.RawMessage    `json:"note_attributes"`
	ShippingAddress   json.RawMessage    `json:"shipping_address"`
	BillingAddress    json.RawMessage    `json:"billing_address"`
	Customer          *wireCustomer      `json:"customer"`
	ShippingLines     []wireShippingLine `json:"shipping_lines"`
	Fulfillments      []wireFulfillment  `json:"fulfillments"`
	LineItems         []wireLineItem     `json:"line_items"`
	CreatedAt         *time.Time         `json:"created_at"`
	UpdatedAt         *time.Time         `json:"updated_at"`
	CancelledAt       *time.Time         `json:"cancelled_at"`
	CancelReason      string             `json:"cancel_reason"`
}

// wireAddress carries only the name parts; the full payload is kept raw.
type wireAddress struct {
	Name      string `json:"name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type wireCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type wireShippingLine struct {
	Title string `json:"title"`
	Price string `json:"price"`
}

type wireFulfillment struct {
	TrackingNumber  string   `json:"tracking_number"`
	TrackingNumbers []string `json:"tracking_numbers"`
}

type wireLineItem struct {
	ID                  int64                    `json:"id"`
	SKU                 string                   `json:"sku"`
	ProductID           int64                    `json:"product_id"`
	VariantID           int64                    `json:"variant_id"`
	Title               string                   `json:"title"`
	VariantTitle        string                   `json:"variant_title"`
	Quantity            int                      `json:"quantity"`
	Price               string                   `json:"price"`
	DiscountAllocations []wireDiscountAllocation `json:"discount_allocations"`
	FulfillableQuantity int                      `json:"fulfillable_quantity"`
	FulfillmentStatus   string                   `json:"fulfillment_status"`
	RequiresShipping    bool                     `json:"requires_shipping"`
	Grams               int64                    `json:"grams"`
	Properties          []wireProperty           `json:"properties"`
}

type wireDiscountAllocation struct {
	Amount string `json:"amount"`
}

type wireProperty struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// toDomain converts a wire order into the source-agnostic remote record.
func (w *wireOrder) toDomain() orders.RemoteOrder {
	record := orders.RemoteOrder{
		ID:                strconv.FormatInt(w.ID, 10),
		Name:              w.Name,
		OrderNumber:       w.OrderNumber,
		Email:             w.Email,
		Phone:             w.Phone,
		Currency:          w.Currency,
		FinancialStatus:   w.FinancialStatus,
		FulfillmentStatus: w.FulfillmentStatus,
		TotalPrice:        w.TotalPrice,
		SubtotalPrice:     w.SubtotalPrice,
		TotalTax:          w.TotalTax,
		Note:              w.Note,
		NoteAttributes:    rawString(w.NoteAttributes),
		ShippingAddress:   toRemoteAddress(w.ShippingAddress),
		BillingAddress:    toRemoteAddress(w.BillingAddress),
		CreatedAt:         w.CreatedAt,
		UpdatedAt:         w.UpdatedAt,
		CancelledAt:       w.CancelledAt,
		CancelReason:      w.CancelReason,
	}
	if w.Customer != nil {
		record.Customer = &orders.RemoteCustomer{
			FirstName: w.Customer.FirstName,
			LastName:  w.Customer.LastName,
			Email:     w.Customer.Email,
			Phone:     w.Customer.Phone,
		}
	}
	for _, sl := range w.ShippingLines {
		record.ShippingLines = append(record.ShippingLines, orders.RemoteShippingLine{
			Title: sl.Title,
			Price: sl.Price,
		})
	}
	for _, f := range w.Fulfillments {
		record.Fulfillments = append(record.Fulfillments, orders.RemoteFulfillment{
			TrackingNumber:  f.TrackingNumber,
			TrackingNumbers: f.TrackingNumbers,
		})
	}
	for _, li := range w.LineItems {
		item := orders.RemoteLineItem{
			ID:                  strconv.FormatInt(li.ID, 10),
			SKU:                 li.SKU,
			Title:               li.Title,
			VariantTitle:        li.VariantTitle,
			Quantity:            li.Quantity,
			Price:               li.Price,
			FulfillableQuantity: li.FulfillableQuantity,
			FulfillmentStatus:   li.FulfillmentStatus,
			RequiresShipping:    li.RequiresShipping,
			Grams:               li.Grams,
		}
		if li.ProductID != 0 {
			item.ProductID = strconv.FormatInt(li.ProductID, 10)
		}
		if li.VariantID != 0 {
			item.VariantID = strconv.FormatInt(li.VariantID, 10)
		}
		for _, d := range li.DiscountAllocations {
			item.DiscountAllocations = append(item.DiscountAllocations, orders.RemoteDiscountAllocation{
				Amount: d.Amount,
			})
		}
		for _, p := range li.Properties {
			item.Properties = append(item.Properties, orders.RemoteProperty{
				Name:  p.Name,
				Value: propertyValue(p.Value),
			})
		}
		record.LineItems = append(record.LineItems, item)
	}
	return record
}

// toRemoteAddress parses the name fields out of a raw address payload while
// preserving the payload verbatim.
func toRemoteAddress(raw json.RawMessage) *orders.RemoteAddress {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	addr := &orders.RemoteAddress{Raw: string(raw)}
	var parsed wireAddress
	if err := json.Unmarshal(raw, &parsed); err == nil {
		addr.Name = parsed.Name
		addr.FirstName = parsed.FirstName
		addr.LastName = parsed.LastName
	}
	return addr
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// propertyValue renders a property value as text. Values arrive as strings
// in practice but the API permits arbitrary JSON scalars.
func propertyValue(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return rawString(raw)
}
