package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/parcelscan/backend/internal/domain/orders"
)

// OrderModel is the persistence model for a mirrored order.
type OrderModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key"`
	RemoteOrderID string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_orders_remote_order_id"`
	OrderNumber   string    `gorm:"type:varchar(64);not null;index"`

	CustomerName  string `gorm:"type:varchar(200);not null"`
	CustomerEmail string `gorm:"type:varchar(320)"`
	CustomerPhone string `gorm:"type:varchar(50)"`

	ShippingAddress string `gorm:"type:jsonb"`
	BillingAddress  string `gorm:"type:jsonb"`
	Note            string `gorm:"type:text"`
	NoteAttributes  string `gorm:"type:jsonb"`

	SubtotalPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalTax      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalShipping decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Currency      string          `gorm:"type:char(3);default:'CAD'"`

	FinancialStatus   string `gorm:"type:varchar(50);index"`
	FulfillmentStatus string `gorm:"type:varchar(50);index"`
	TrackingNumber    string `gorm:"type:varchar(100);index"`
	TotalWeightGrams  int64  `gorm:"not null;default:0"`

	RemoteCreatedAt *time.Time `gorm:"index"`
	RemoteUpdatedAt *time.Time
	CancelledAt     *time.Time
	CancelReason    string `gorm:"type:varchar(500)"`

	ScannedStatus bool `gorm:"not null;default:false;index"`
	ScannedAt     *time.Time

	Items []OrderLineItemModel `gorm:"foreignKey:OrderID;references:ID;constraint:OnDelete:CASCADE"`

	SyncedAt  time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order entity.
func (m *OrderModel) ToDomain() *orders.Order {
	order := &orders.Order{
		ID:                m.ID,
		RemoteOrderID:     m.RemoteOrderID,
		OrderNumber:       m.OrderNumber,
		CustomerName:      m.CustomerName,
		CustomerEmail:     m.CustomerEmail,
		CustomerPhone:     m.CustomerPhone,
		ShippingAddress:   m.ShippingAddress,
		BillingAddress:    m.BillingAddress,
		Note:              m.Note,
		NoteAttributes:    m.NoteAttributes,
		SubtotalPrice:     m.SubtotalPrice,
		TotalTax:          m.TotalTax,
		TotalShipping:     m.TotalShipping,
		TotalPrice:        m.TotalPrice,
		Currency:          m.Currency,
		FinancialStatus:   m.FinancialStatus,
		FulfillmentStatus: m.FulfillmentStatus,
		TrackingNumber:    m.TrackingNumber,
		TotalWeightGrams:  m.TotalWeightGrams,
		RemoteCreatedAt:   m.RemoteCreatedAt,
		RemoteUpdatedAt:   m.RemoteUpdatedAt,
		CancelledAt:       m.CancelledAt,
		CancelReason:      m.CancelReason,
		ScannedStatus:     m.ScannedStatus,
		ScannedAt:         m.ScannedAt,
		SyncedAt:          m.SyncedAt,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
		Items:             make([]orders.LineItem, len(m.Items)),
	}
	for i, item := range m.Items {
		order.Items[i] = *item.ToDomain()
	}
	return order
}

// FromDomain populates the persistence model from a domain Order entity.
func (m *OrderModel) FromDomain(o *orders.Order) {
	m.ID = o.ID
	m.RemoteOrderID = o.RemoteOrderID
	m.OrderNumber = o.OrderNumber
	m.CustomerName = o.CustomerName
	m.CustomerEmail = o.CustomerEmail
	m.CustomerPhone = o.CustomerPhone
	m.ShippingAddress = o.ShippingAddress
	m.BillingAddress = o.BillingAddress
	m.Note = o.Note
	m.NoteAttributes = o.NoteAttributes
	m.SubtotalPrice = o.SubtotalPrice
	m.TotalTax = o.TotalTax
	m.TotalShipping = o.TotalShipping
	m.TotalPrice = o.TotalPrice
	m.Currency = o.Currency
	m.FinancialStatus = o.FinancialStatus
	m.FulfillmentStatus = o.FulfillmentStatus
	m.TrackingNumber = o.TrackingNumber
	m.TotalWeightGrams = o.TotalWeightGrams
	m.RemoteCreatedAt = o.RemoteCreatedAt
	m.RemoteUpdatedAt = o.RemoteUpdatedAt
	m.CancelledAt = o.CancelledAt
	m.CancelReason = o.CancelReason
	m.ScannedStatus = o.ScannedStatus
	m.ScannedAt = o.ScannedAt
	m.SyncedAt = o.SyncedAt
	m.CreatedAt = o.CreatedAt
	m.UpdatedAt = o.UpdatedAt
	m.Items = make([]OrderLineItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = *OrderLineItemModelFromDomain(&item)
	}
}

// OrderModelFromDomain creates a new persistence model from a domain Order entity.
func OrderModelFromDomain(o *orders.Order) *OrderModel {
	m := &OrderModel{}
	m.FromDomain(o)
	return m
}

// OrderLineItemModel is the persistence model for an order line item.
type OrderLineItemModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID `gorm:"type:uuid;not null;index"`
	RemoteLineItemID string    `gorm:"type:varchar(64);not null"`

	SKU          string `gorm:"type:varchar(100);index"`
	ProductID    string `gorm:"type:varchar(64)"`
	VariantID    string `gorm:"type:varchar(64)"`
	ProductTitle string `gorm:"type:varchar(500);not null"`
	VariantTitle string `gorm:"type:varchar(500)"`

	Quantity      int             `gorm:"not null"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDiscount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	FulfillableQuantity int    `gorm:"not null;default:0"`
	FulfillmentStatus   string `gorm:"type:varchar(50)"`
	RequiresShipping    bool   `gorm:"not null;default:true"`
	Grams               int64  `gorm:"not null;default:0"`

	Options []OrderLineItemOptionModel `gorm:"foreignKey:LineItemID;references:ID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineItemModel) TableName() string {
	return "order_line_items"
}

// ToDomain converts the persistence model to a domain LineItem entity.
func (m *OrderLineItemModel) ToDomain() *orders.LineItem {
	item := &orders.LineItem{
		ID:                  m.ID,
		OrderID:             m.OrderID,
		RemoteLineItemID:    m.RemoteLineItemID,
		SKU:                 m.SKU,
		ProductID:           m.ProductID,
		VariantID:           m.VariantID,
		ProductTitle:        m.ProductTitle,
		VariantTitle:        m.VariantTitle,
		Quantity:            m.Quantity,
		Price:               m.Price,
		TotalDiscount:       m.TotalDiscount,
		FulfillableQuantity: m.FulfillableQuantity,
		FulfillmentStatus:   m.FulfillmentStatus,
		RequiresShipping:    m.RequiresShipping,
		Grams:               m.Grams,
		Options:             make([]orders.LineItemOption, len(m.Options)),
	}
	for i, opt := range m.Options {
		item.Options[i] = orders.LineItemOption{
			ID:         opt.ID,
			LineItemID: opt.LineItemID,
			Name:       opt.Name,
			Value:      opt.Value,
		}
	}
	return item
}

// FromDomain populates the persistence model from a domain LineItem entity.
func (m *OrderLineItemModel) FromDomain(i *orders.LineItem) {
	m.ID = i.ID
	m.OrderID = i.OrderID
	m.RemoteLineItemID = i.RemoteLineItemID
	m.SKU = i.SKU
	m.ProductID = i.ProductID
	m.VariantID = i.VariantID
	m.ProductTitle = i.ProductTitle
	m.VariantTitle = i.VariantTitle
	m.Quantity = i.Quantity
	m.Price = i.Price
	m.TotalDiscount = i.TotalDiscount
	m.FulfillableQuantity = i.FulfillableQuantity
	m.FulfillmentStatus = i.FulfillmentStatus
	m.RequiresShipping = i.RequiresShipping
	m.Grams = i.Grams
	m.Options = make([]OrderLineItemOptionModel, len(i.Options))
	for j, opt := range i.Options {
		m.Options[j] = OrderLineItemOptionModel{
			ID:         opt.ID,
			LineItemID: opt.LineItemID,
			Name:       opt.Name,
			Value:      opt.Value,
		}
	}
}

// OrderLineItemModelFromDomain creates a new persistence model from a domain LineItem entity.
func OrderLineItemModelFromDomain(i *orders.LineItem) *OrderLineItemModel {
	m := &OrderLineItemModel{}
	m.FromDomain(i)
	return m
}

// OrderLineItemOptionModel is the persistence model for a line item option.
type OrderLineItemOptionModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primary_key"`
	LineItemID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name       string    `gorm:"type:varchar(255);not null"`
	Value      string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderLineItemOptionModel) TableName() string {
	return "order_line_item_options"
}

// OrderSyncStatusModel is the persistence model for per-job sync state.
// One row exists per sync type.
type OrderSyncStatusModel struct {
	SyncType        string `gorm:"type:varchar(50);primary_key"`
	Status          string `gorm:"type:varchar(20);not null;default:'idle'"`
	LastSyncAt      *time.Time
	LastSyncCount   int       `gorm:"not null;default:0"`
	CurrentPage     int       `gorm:"not null;default:0"`
	SyncedCount     int       `gorm:"not null;default:0"`
	ProgressMessage string    `gorm:"type:text"`
	ResumeCursor    string    `gorm:"type:text"`
	RunParams       string    `gorm:"type:jsonb"`
	ErrorMessage    string    `gorm:"type:text"`
	UpdatedAt       time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (OrderSyncStatusModel) TableName() string {
	return "order_sync_status"
}

// ToDomain converts the persistence model to a domain SyncJobState.
func (m *OrderSyncStatusModel) ToDomain() (*orders.SyncJobState, error) {
	state := &orders.SyncJobState{
		SyncType:        m.SyncType,
		Status:          orders.SyncJobStatus(m.Status),
		LastSyncAt:      m.LastSyncAt,
		LastSyncCount:   m.LastSyncCount,
		CurrentPage:     m.CurrentPage,
		SyncedCount:     m.SyncedCount,
		ProgressMessage: m.ProgressMessage,
		ResumeCursor:    m.ResumeCursor,
		ErrorMessage:    m.ErrorMessage,
		UpdatedAt:       m.UpdatedAt,
	}
	if m.RunParams != "" {
		var params orders.RunParams
		if err := json.Unmarshal([]byte(m.RunParams), &params); err != nil {
			return nil, err
		}
		state.RunParams = &params
	}
	return state, nil
}

// FromDomain populates the persistence model from a domain SyncJobState.
func (m *OrderSyncStatusModel) FromDomain(s *orders.SyncJobState) error {
	m.SyncType = s.SyncType
	m.Status = s.Status.String()
	m.LastSyncAt = s.LastSyncAt
	m.LastSyncCount = s.LastSyncCount
	m.CurrentPage = s.CurrentPage
	m.SyncedCount = s.SyncedCount
	m.ProgressMessage = s.ProgressMessage
	m.ResumeCursor = s.ResumeCursor
	m.ErrorMessage = s.ErrorMessage
	m.UpdatedAt = s.UpdatedAt
	m.RunParams = ""
	if s.RunParams != nil {
		raw, err := json.Marshal(s.RunParams)
		if err != nil {
			return err
		}
		m.RunParams = string(raw)
	}
	return nil
}
