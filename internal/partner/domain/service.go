package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	// CreateFromTier enrolls a member as a partner at the named tier,
	// granting the tier's tokens and welcome points. A member can hold at
	// most one partner record.
	CreateFromTier(ctx context.Context, memberID snowflake.ID, tierName string) (*Partner, error)

	GetByMember(ctx context.Context, memberID snowflake.ID) (*Partner, error)
	List(ctx context.Context, limit int) ([]Partner, error)

	// ListHolders returns every partner holding at least one token, in a
	// stable order for settlement.
	ListHolders(ctx context.Context) ([]Partner, error)

	// AdjustTokens adds delta to a partner's token count. Negative deltas
	// may not push the count below zero.
	AdjustTokens(ctx context.Context, partnerID snowflake.ID, delta int64, reason string) (*Partner, error)
}

var (
	ErrPartnerNotFound = errors.New("partner_not_found")
	ErrAlreadyPartner  = errors.New("already_partner")
	ErrUnknownTier     = errors.New("unknown_tier")
	ErrNegativeTokens  = errors.New("negative_tokens")
)
