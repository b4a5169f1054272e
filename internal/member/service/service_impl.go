package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	memberdomain "github.com/solventlabs/solvent/internal/member/domain"
	"github.com/solventlabs/solvent/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) memberdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("member.service"),
		genID: p.GenID,
	}
}

func (s *Service) ResolveOrCreate(ctx context.Context, in memberdomain.ResolveInput) (*memberdomain.Member, error) {
	externalID := strings.TrimSpace(in.ExternalID)
	if externalID == "" {
		return nil, memberdomain.ErrInvalidExternalID
	}

	var existing memberdomain.Member
	err := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	member := memberdomain.Member{
		ID:           s.genID.Generate(),
		ExternalID:   externalID,
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.TrimSpace(in.Email),
		Phone:        strings.TrimSpace(in.Phone),
		ReferralCode: newReferralCode(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the race to another resolver; the winner's row stands.
			var winner memberdomain.Member
			if ferr := s.db.WithContext(ctx).Where("external_id = ?", externalID).First(&winner).Error; ferr != nil {
				return nil, ferr
			}
			return &winner, nil
		}
		return nil, err
	}
	return &member, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*memberdomain.Member, error) {
	var member memberdomain.Member
	err := s.db.WithContext(ctx).First(&member, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, memberdomain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Service) FindByReferralCode(ctx context.Context, code string) (*memberdomain.Member, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, memberdomain.ErrMemberNotFound
	}
	var member memberdomain.Member
	err := s.db.WithContext(ctx).Where("referral_code = ?", code).First(&member).Error
	if err == gorm.ErrRecordNotFound {
		return nil, memberdomain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Service) AttachReferrer(ctx context.Context, memberID, referrerID snowflake.ID) (bool, error) {
	if memberID == 0 || referrerID == 0 {
		return false, memberdomain.ErrMemberNotFound
	}
	if memberID == referrerID {
		return false, memberdomain.ErrSelfReferral
	}

	result := s.db.WithContext(ctx).Exec(
		`INSERT INTO member_referrers (member_id, referrer_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (member_id) DO NOTHING`,
		memberID,
		referrerID,
		time.Now().UTC(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		s.log.Info("referrer already recorded, keeping first",
			zap.String("member_id", memberID.String()),
			zap.String("referrer_id", referrerID.String()),
		)
		return false, nil
	}
	return true, nil
}

func (s *Service) GetReferrer(ctx context.Context, memberID snowflake.ID) (*memberdomain.MemberReferrer, error) {
	var ref memberdomain.MemberReferrer
	err := s.db.WithContext(ctx).First(&ref, "member_id = ?", memberID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (s *Service) SaveDefaultAddress(ctx context.Context, memberID snowflake.ID, in memberdomain.AddressInput) (*memberdomain.MemberAddress, error) {
	if memberID == 0 {
		return nil, memberdomain.ErrMemberNotFound
	}

	now := time.Now().UTC()
	var addr memberdomain.MemberAddress
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("member_id = ?", memberID).First(&addr).Error
		if err == gorm.ErrRecordNotFound {
			addr = memberdomain.MemberAddress{
				ID:        s.genID.Generate(),
				MemberID:  memberID,
				CreatedAt: now,
			}
		} else if err != nil {
			return err
		}

		addr.Recipient = strings.TrimSpace(in.Recipient)
		addr.Phone = strings.TrimSpace(in.Phone)
		addr.Line1 = strings.TrimSpace(in.Line1)
		addr.Line2 = strings.TrimSpace(in.Line2)
		addr.City = strings.TrimSpace(in.City)
		addr.Province = strings.TrimSpace(in.Province)
		addr.PostalCode = strings.TrimSpace(in.PostalCode)
		addr.UpdatedAt = now
		return tx.Save(&addr).Error
	})
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func (s *Service) GetDefaultAddress(ctx context.Context, memberID snowflake.ID) (*memberdomain.MemberAddress, error) {
	var addr memberdomain.MemberAddress
	err := s.db.WithContext(ctx).First(&addr, "member_id = ?", memberID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

func newReferralCode() string {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("RC%d", time.Now().UnixNano())
	}
	return strings.ToUpper(hex.EncodeToString(buf))
}
