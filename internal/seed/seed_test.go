package seed

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	bonuspooldomain "github.com/solventlabs/solvent/internal/bonuspool/domain"
	"github.com/solventlabs/solvent/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(&bonuspooldomain.BonusCycle{}))
	return conn
}

func TestEnsureOpenCycle_SeedsFirstCycle(t *testing.T) {
	conn := newTestDB(t)
	program := config.NewStaticProgramConfigHolder(config.DefaultProgramConfig())

	require.NoError(t, EnsureOpenCycle(conn, program))

	var cycle bonuspooldomain.BonusCycle
	require.NoError(t, conn.First(&cycle).Error)
	assert.Equal(t, int64(1), cycle.Sequence)
	assert.Equal(t, bonuspooldomain.CycleStatusOpen, cycle.Status)
	assert.Equal(t, int64(0), cycle.PoolAmount)
	assert.Equal(t, cycle.StartAt.AddDate(0, 0, 10), cycle.EndAt)

	// A second boot leaves the existing open cycle alone.
	require.NoError(t, EnsureOpenCycle(conn, program))

	var count int64
	require.NoError(t, conn.Model(&bonuspooldomain.BonusCycle{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureOpenCycle_ResumesAfterSettledCycle(t *testing.T) {
	conn := newTestDB(t)
	program := config.NewStaticProgramConfigHolder(config.DefaultProgramConfig())

	settledAt := time.Date(2026, 2, 11, 0, 0, 0, 0, time.UTC)
	require.NoError(t, conn.Create(&bonuspooldomain.BonusCycle{
		ID:         1,
		Sequence:   3,
		Status:     bonuspooldomain.CycleStatusSettled,
		StartAt:    settledAt.AddDate(0, 0, -10),
		EndAt:      settledAt,
		PoolAmount: 10_500,
		DustAmount: 42,
		SettledAt:  &settledAt,
	}).Error)

	require.NoError(t, EnsureOpenCycle(conn, program))

	var cycle bonuspooldomain.BonusCycle
	require.NoError(t, conn.Where("status = ?", string(bonuspooldomain.CycleStatusOpen)).First(&cycle).Error)
	assert.Equal(t, int64(4), cycle.Sequence)
	assert.Equal(t, settledAt, cycle.StartAt)
	assert.Equal(t, int64(42), cycle.PoolAmount)
}
