package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ProgramConfig holds the business rules of the partner program: how much of
// each paid order feeds the bonus pool, how long a pool cycle runs, how the
// referral commission chain is paid, and which partner tiers exist.
type ProgramConfig struct {
	// ContributionRateBP is the share of each paid order added to the open
	// bonus cycle, in basis points (3000 = 30%).
	ContributionRateBP int64 `mapstructure:"contributionRateBp"`
	// CycleLengthDays is the fixed length of a bonus pool cycle.
	CycleLengthDays int `mapstructure:"cycleLengthDays"`
	// ReferralLevels are walked starting at the paying member's referrer.
	ReferralLevels []ReferralLevel `mapstructure:"referralLevels"`
	Tiers          []PartnerTier   `mapstructure:"tiers"`
}

// ReferralLevel configures one hop of the referral chain.
type ReferralLevel struct {
	Level  int   `mapstructure:"level"`
	RateBP int64 `mapstructure:"rateBp"`
}

// PartnerTier grants a fixed token count and an initial point balance at
// purchase time.
type PartnerTier struct {
	Code          string `mapstructure:"code"`
	Name          string `mapstructure:"name"`
	Tokens        int64  `mapstructure:"tokens"`
	InitialPoints int64  `mapstructure:"initialPoints"`
	PriceAmount   int64  `mapstructure:"priceAmount"`
}

func DefaultProgramConfig() ProgramConfig {
	return ProgramConfig{
		ContributionRateBP: 3000,
		CycleLengthDays:    10,
		ReferralLevels: []ReferralLevel{
			{Level: 1, RateBP: 500},
		},
		Tiers: []PartnerTier{
			{Code: "silver", Name: "Silver Partner", Tokens: 1, InitialPoints: 100, PriceAmount: 100_000},
			{Code: "gold", Name: "Gold Partner", Tokens: 2, InitialPoints: 250, PriceAmount: 180_000},
			{Code: "platinum", Name: "Platinum Partner", Tokens: 4, InitialPoints: 600, PriceAmount: 320_000},
		},
	}
}

// ProgramConfigHolder exposes the current program rules and hot-reloads them
// when the mounted config file changes.
type ProgramConfigHolder struct {
	current atomic.Value // holds ProgramConfig
}

func NewProgramConfigHolder() (*ProgramConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("program")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/solvent/config")
	v.AddConfigPath("/etc/solvent")
	v.AddConfigPath(".")

	v.SetEnvPrefix("SOLVENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultProgramConfig()
		v.SetDefault("program.contributionRateBp", defaults.ContributionRateBP)
		v.SetDefault("program.cycleLengthDays", defaults.CycleLengthDays)
		v.SetDefault("program.referralLevels", defaults.ReferralLevels)
		v.SetDefault("program.tiers", defaults.Tiers)
	}

	var cfg ProgramConfig
	if err := v.UnmarshalKey("program", &cfg); err != nil {
		return nil, err
	}
	if err := validateProgramConfig(cfg); err != nil {
		return nil, err
	}

	holder := &ProgramConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated ProgramConfig
		if err := v.UnmarshalKey("program", &updated); err != nil {
			log.Printf("[program-config] reload failed: %v", err)
			return
		}
		if err := validateProgramConfig(updated); err != nil {
			log.Printf("[program-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[program-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *ProgramConfigHolder) Get() ProgramConfig {
	return h.current.Load().(ProgramConfig)
}

// NewStaticProgramConfigHolder returns a holder with a fixed config. Tests
// use it to pin rates without a config file.
func NewStaticProgramConfigHolder(cfg ProgramConfig) *ProgramConfigHolder {
	holder := &ProgramConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateProgramConfig(cfg ProgramConfig) error {
	if cfg.ContributionRateBP < 0 || cfg.ContributionRateBP > 10_000 {
		return errors.New("program.contributionRateBp must be between 0 and 10000")
	}
	if cfg.CycleLengthDays <= 0 {
		return errors.New("program.cycleLengthDays must be positive")
	}
	for _, level := range cfg.ReferralLevels {
		if level.RateBP < 0 || level.RateBP > 10_000 {
			return errors.New("program.referralLevels rateBp must be between 0 and 10000")
		}
	}
	for _, tier := range cfg.Tiers {
		if strings.TrimSpace(tier.Code) == "" {
			return errors.New("program.tiers code cannot be empty")
		}
		if tier.Tokens <= 0 {
			return errors.New("program.tiers tokens must be positive")
		}
	}
	return nil
}
