package completion

import (
	"github.com/solventlabs/solvent/internal/completion/service"
	"go.uber.org/fx"
)

var Module = fx.Module("completion.service",
	fx.Provide(service.NewService),
)
