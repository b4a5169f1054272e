package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Member is an account that can buy, refer, and hold balances.
type Member struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	ExternalID   string       `gorm:"type:text;not null;uniqueIndex:ux_members_external_id" json:"external_id"`
	Name         string       `gorm:"type:text;not null;default:''" json:"name"`
	Email        string       `gorm:"type:text;not null;default:''" json:"email"`
	Phone        string       `gorm:"type:text;not null;default:''" json:"phone"`
	ReferralCode string       `gorm:"type:text;not null;uniqueIndex:ux_members_referral_code" json:"referral_code"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Member) TableName() string { return "members" }

// MemberReferrer binds a member to the member who referred them. The primary
// key on MemberID means the first recorded referrer wins for good.
type MemberReferrer struct {
	MemberID   snowflake.ID `gorm:"primaryKey" json:"member_id"`
	ReferrerID snowflake.ID `gorm:"not null;index" json:"referrer_id"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (MemberReferrer) TableName() string { return "member_referrers" }

// MemberAddress is the default shipping address snapshot for a member.
type MemberAddress struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	MemberID   snowflake.ID `gorm:"not null;uniqueIndex:ux_member_addresses_member" json:"member_id"`
	Recipient  string       `gorm:"type:text;not null;default:''" json:"recipient"`
	Phone      string       `gorm:"type:text;not null;default:''" json:"phone"`
	Line1      string       `gorm:"type:text;not null;default:''" json:"line1"`
	Line2      string       `gorm:"type:text;not null;default:''" json:"line2"`
	City       string       `gorm:"type:text;not null;default:''" json:"city"`
	Province   string       `gorm:"type:text;not null;default:''" json:"province"`
	PostalCode string       `gorm:"type:text;not null;default:''" json:"postal_code"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (MemberAddress) TableName() string { return "member_addresses" }
