package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/solventlabs/solvent/internal/config"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	partnerdomain "github.com/solventlabs/solvent/internal/partner/domain"
	"github.com/solventlabs/solvent/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Program *config.ProgramConfigHolder
	Ledger  ledgerdomain.Service
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	program *config.ProgramConfigHolder
	ledger  ledgerdomain.Service
}

func NewService(p Params) partnerdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("partner.service"),
		genID:   p.GenID,
		program: p.Program,
		ledger:  p.Ledger,
	}
}

func (s *Service) CreateFromTier(ctx context.Context, memberID snowflake.ID, tierName string) (*partnerdomain.Partner, error) {
	if memberID == 0 {
		return nil, partnerdomain.ErrPartnerNotFound
	}

	tierCode := strings.ToLower(strings.TrimSpace(tierName))
	var tier *config.PartnerTier
	for _, t := range s.program.Get().Tiers {
		if t.Code == tierCode {
			tier = &t
			break
		}
	}
	if tier == nil {
		return nil, partnerdomain.ErrUnknownTier
	}

	now := time.Now().UTC()
	partner := partnerdomain.Partner{
		ID:        s.genID.Generate(),
		MemberID:  memberID,
		Tier:      tier.Code,
		Tokens:    tier.Tokens,
		JoinedAt:  now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&partner).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, partnerdomain.ErrAlreadyPartner
		}
		return nil, err
	}

	if tier.InitialPoints > 0 {
		_, err := s.ledger.RecordEntry(ctx, ledgerdomain.NewEntry{
			OwnerID:     memberID,
			EntryType:   ledgerdomain.EntryTypeTierGrant,
			Balance:     ledgerdomain.BalancePoints,
			Amount:      tier.InitialPoints,
			Description: "welcome points for tier " + tier.Code,
			SourceType:  ledgerdomain.SourceTypeTier,
			SourceID:    partner.ID,
			OccurredAt:  now,
		})
		if err != nil {
			s.log.Warn("tier welcome points not recorded",
				zap.String("partner_id", partner.ID.String()),
				zap.Error(err),
			)
		}
	}

	return &partner, nil
}

func (s *Service) GetByMember(ctx context.Context, memberID snowflake.ID) (*partnerdomain.Partner, error) {
	var partner partnerdomain.Partner
	err := s.db.WithContext(ctx).First(&partner, "member_id = ?", memberID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, partnerdomain.ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &partner, nil
}

func (s *Service) List(ctx context.Context, limit int) ([]partnerdomain.Partner, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	var partners []partnerdomain.Partner
	err := s.db.WithContext(ctx).
		Order("joined_at").
		Limit(limit).
		Find(&partners).Error
	if err != nil {
		return nil, err
	}
	return partners, nil
}

func (s *Service) ListHolders(ctx context.Context) ([]partnerdomain.Partner, error) {
	var partners []partnerdomain.Partner
	err := s.db.WithContext(ctx).
		Where("tokens > 0").
		Order("id").
		Find(&partners).Error
	if err != nil {
		return nil, err
	}
	return partners, nil
}

func (s *Service) AdjustTokens(ctx context.Context, partnerID snowflake.ID, delta int64, reason string) (*partnerdomain.Partner, error) {
	if delta == 0 {
		return nil, partnerdomain.ErrNegativeTokens
	}

	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE partners SET tokens = tokens + ?, updated_at = ? WHERE id = ? AND tokens + ? >= 0`,
		delta, now, partnerID, delta,
	)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&partnerdomain.Partner{}).Where("id = ?", partnerID).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, partnerdomain.ErrPartnerNotFound
		}
		return nil, partnerdomain.ErrNegativeTokens
	}

	s.log.Info("partner tokens adjusted",
		zap.String("partner_id", partnerID.String()),
		zap.Int64("delta", delta),
		zap.String("reason", reason),
	)

	var partner partnerdomain.Partner
	if err := s.db.WithContext(ctx).First(&partner, "id = ?", partnerID).Error; err != nil {
		return nil, err
	}
	return &partner, nil
}
