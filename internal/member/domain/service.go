package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// ResolveInput identifies a member by external id, creating the member on
// first sight.
type ResolveInput struct {
	ExternalID string
	Name       string
	Email      string
	Phone      string
}

type AddressInput struct {
	Recipient  string
	Phone      string
	Line1      string
	Line2      string
	City       string
	Province   string
	PostalCode string
}

type Service interface {
	// ResolveOrCreate returns the member for the external id, creating it
	// when no member exists yet. Concurrent first sightings converge on a
	// single row.
	ResolveOrCreate(ctx context.Context, in ResolveInput) (*Member, error)

	Get(ctx context.Context, id snowflake.ID) (*Member, error)
	FindByReferralCode(ctx context.Context, code string) (*Member, error)

	// AttachReferrer records who referred the member. The first write wins;
	// later attempts are ignored. Self referral is rejected.
	AttachReferrer(ctx context.Context, memberID, referrerID snowflake.ID) (bool, error)
	GetReferrer(ctx context.Context, memberID snowflake.ID) (*MemberReferrer, error)

	SaveDefaultAddress(ctx context.Context, memberID snowflake.ID, in AddressInput) (*MemberAddress, error)
	GetDefaultAddress(ctx context.Context, memberID snowflake.ID) (*MemberAddress, error)
}

var (
	ErrInvalidExternalID = errors.New("invalid_external_id")
	ErrMemberNotFound    = errors.New("member_not_found")
	ErrSelfReferral      = errors.New("self_referral")
)
