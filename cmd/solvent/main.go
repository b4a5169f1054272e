package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/solventlabs/solvent/internal/bill"
	"github.com/solventlabs/solvent/internal/bonuspool"
	"github.com/solventlabs/solvent/internal/catalog"
	"github.com/solventlabs/solvent/internal/clock"
	"github.com/solventlabs/solvent/internal/completion"
	"github.com/solventlabs/solvent/internal/config"
	"github.com/solventlabs/solvent/internal/ledger"
	"github.com/solventlabs/solvent/internal/locking"
	"github.com/solventlabs/solvent/internal/logger"
	"github.com/solventlabs/solvent/internal/member"
	"github.com/solventlabs/solvent/internal/metrics"
	"github.com/solventlabs/solvent/internal/migration"
	"github.com/solventlabs/solvent/internal/order"
	"github.com/solventlabs/solvent/internal/partner"
	"github.com/solventlabs/solvent/internal/referral"
	"github.com/solventlabs/solvent/internal/scheduler"
	"github.com/solventlabs/solvent/internal/server"
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

		member.Module,
		catalog.Module,
		order.Module,
		bill.Module,
		ledger.Module,
		partner.Module,
		bonuspool.Module,
		referral.Module,
		completion.Module,

		scheduler.Module,
		server.Module,
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
