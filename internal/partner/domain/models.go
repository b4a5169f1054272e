package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Partner is a member who bought into a tier and holds bonus tokens. Tokens
// weight the partner's share of each settled bonus cycle.
type Partner struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	MemberID  snowflake.ID `gorm:"not null;uniqueIndex:ux_partners_member_id" json:"member_id"`
	Tier      string       `gorm:"type:text;not null" json:"tier"`
	Tokens    int64        `gorm:"not null;default:0" json:"tokens"`
	JoinedAt  time.Time    `gorm:"not null" json:"joined_at"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Partner) TableName() string { return "partners" }
