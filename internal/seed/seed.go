package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	bonuspooldomain "github.com/solventlabs/solvent/internal/bonuspool/domain"
	"github.com/solventlabs/solvent/internal/config"
	"gorm.io/gorm"
)

// EnsureOpenCycle seeds the first bonus cycle at startup so contributions
// always have somewhere to land. Later cycles are opened by settlement and
// the scheduler.
func EnsureOpenCycle(db *gorm.DB, program *config.ProgramConfigHolder) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var openCount int64
		err := tx.Model(&bonuspooldomain.BonusCycle{}).
			Where("status = ?", string(bonuspooldomain.CycleStatusOpen)).
			Count(&openCount).Error
		if err != nil {
			return err
		}
		if openCount > 0 {
			return nil
		}

		var last bonuspooldomain.BonusCycle
		sequence := int64(1)
		openingPool := int64(0)
		now := time.Now().UTC()
		start := now
		err = tx.Order("sequence DESC").First(&last).Error
		if err == nil {
			sequence = last.Sequence + 1
			start = last.EndAt
			openingPool = last.DustAmount
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		cfg := program.Get()
		cycle := bonuspooldomain.BonusCycle{
			ID:         node.Generate(),
			Sequence:   sequence,
			Status:     bonuspooldomain.CycleStatusOpen,
			StartAt:    start,
			EndAt:      start.AddDate(0, 0, cfg.CycleLengthDays),
			RateBP:     cfg.ContributionRateBP,
			PoolAmount: openingPool,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		return tx.Create(&cycle).Error
	})
}
