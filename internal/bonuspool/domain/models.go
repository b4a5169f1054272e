package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type CycleStatus string

const (
	CycleStatusOpen    CycleStatus = "open"
	CycleStatusSettled CycleStatus = "settled"
)

// BonusCycle is one fixed-length window of the bonus pool. At most one cycle
// is open at a time; contributions land on it and settlement closes it.
// PerTokenMicro is the pool value of a single token in millionths of a minor
// unit, kept for audit only; payouts are computed from the pool directly.
type BonusCycle struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	Sequence      int64             `gorm:"not null;uniqueIndex:ux_bonus_cycles_sequence" json:"sequence"`
	Status        CycleStatus       `gorm:"type:text;not null;default:'open'" json:"status"`
	StartAt       time.Time         `gorm:"not null" json:"start_at"`
	EndAt         time.Time         `gorm:"not null" json:"end_at"`
	RateBP        int64             `gorm:"column:contribution_rate_bp;not null;default:0" json:"contribution_rate_bp"`
	PoolAmount    int64             `gorm:"not null;default:0" json:"pool_amount"`
	TotalTokens   int64             `gorm:"not null;default:0" json:"total_tokens"`
	PerTokenMicro int64             `gorm:"not null;default:0" json:"per_token_micro"`
	DustAmount    int64             `gorm:"not null;default:0" json:"dust_amount"`
	SettledAt     *time.Time        `json:"settled_at,omitempty"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (BonusCycle) TableName() string { return "bonus_cycles" }
