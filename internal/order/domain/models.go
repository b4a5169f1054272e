package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// nextStatuses is the allowed fulfillment transition map. Confirmation
// happens through MarkConfirmed, cancellation through Cancel; this covers
// the rest.
var nextStatuses = map[Status][]Status{
	StatusConfirmed:  {StatusProcessing},
	StatusProcessing: {StatusShipped},
	StatusShipped:    {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	for _, allowed := range nextStatuses[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Order is a purchase by a member. TotalAmount is minor currency units;
// TotalPoints is the sum of item points at purchase time.
type Order struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	OrderNo     string            `gorm:"type:text;not null;uniqueIndex:ux_orders_order_no" json:"order_no"`
	MemberID    snowflake.ID      `gorm:"not null;index" json:"member_id"`
	Status      Status            `gorm:"type:text;not null;default:'pending'" json:"status"`
	TotalAmount int64             `gorm:"not null;default:0" json:"total_amount"`
	TotalPoints int64             `gorm:"not null;default:0" json:"total_points"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	ConfirmedAt *time.Time        `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots a product at purchase time so later catalog edits do
// not rewrite history.
type OrderItem struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID `gorm:"not null;index" json:"order_id"`
	ProductID snowflake.ID `gorm:"not null" json:"product_id"`
	SKU       string       `gorm:"type:text;not null" json:"sku"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Quantity  int64        `gorm:"not null" json:"quantity"`
	UnitPrice int64        `gorm:"not null" json:"unit_price"`
	Points    int64        `gorm:"not null;default:0" json:"points"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (OrderItem) TableName() string { return "order_items" }
