package bonuspool

import (
	"github.com/solventlabs/solvent/internal/bonuspool/service"
	"go.uber.org/fx"
)

var Module = fx.Module("bonuspool.service",
	fx.Provide(service.NewService),
)
