package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Product is a sellable item. Prices are minor currency units.
type Product struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SKU       string       `gorm:"type:text;not null;uniqueIndex:ux_products_sku" json:"sku"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Price     int64        `gorm:"not null" json:"price"`
	Points    int64        `gorm:"not null;default:0" json:"points"`
	Stock     int64        `gorm:"not null;default:0" json:"stock"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Product) TableName() string { return "products" }
