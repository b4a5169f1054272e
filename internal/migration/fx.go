package migration

import (
	"github.com/solventlabs/solvent/internal/config"
	"github.com/solventlabs/solvent/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
	fx.Invoke(func(conn *gorm.DB, program *config.ProgramConfigHolder) error {
		return seed.EnsureOpenCycle(conn, program)
	}),
)
