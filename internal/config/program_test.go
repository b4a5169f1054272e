package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultProgramConfigIsValid(t *testing.T) {
	require.NoError(t, validateProgramConfig(DefaultProgramConfig()))
}

func TestValidateProgramConfig(t *testing.T) {
	base := DefaultProgramConfig()

	cfg := base
	cfg.ContributionRateBP = 10_001
	assert.Error(t, validateProgramConfig(cfg))

	cfg = base
	cfg.ContributionRateBP = -1
	assert.Error(t, validateProgramConfig(cfg))

	cfg = base
	cfg.CycleLengthDays = 0
	assert.Error(t, validateProgramConfig(cfg))

	cfg = base
	cfg.ReferralLevels = []ReferralLevel{{Level: 1, RateBP: 20_000}}
	assert.Error(t, validateProgramConfig(cfg))

	cfg = base
	cfg.Tiers = []PartnerTier{{Code: "", Tokens: 1}}
	assert.Error(t, validateProgramConfig(cfg))

	cfg = base
	cfg.Tiers = []PartnerTier{{Code: "zero", Tokens: 0}}
	assert.Error(t, validateProgramConfig(cfg))
}

func TestStaticProgramConfigHolder(t *testing.T) {
	cfg := DefaultProgramConfig()
	cfg.ContributionRateBP = 1_500

	holder := NewStaticProgramConfigHolder(cfg)
	assert.Equal(t, int64(1_500), holder.Get().ContributionRateBP)
}
