package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/solventlabs/solvent/internal/bonuspool"
	"github.com/solventlabs/solvent/internal/clock"
	"github.com/solventlabs/solvent/internal/config"
	"github.com/solventlabs/solvent/internal/ledger"
	"github.com/solventlabs/solvent/internal/locking"
	"github.com/solventlabs/solvent/internal/logger"
	"github.com/solventlabs/solvent/internal/metrics"
	"github.com/solventlabs/solvent/internal/migration"
	"github.com/solventlabs/solvent/internal/partner"
	"github.com/solventlabs/solvent/internal/scheduler"
	"github.com/solventlabs/solvent/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		locking.Module,
		migration.Module,

		// Domain services required by the scheduler
		ledger.Module,
		partner.Module,
		bonuspool.Module,

		// No server module
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
