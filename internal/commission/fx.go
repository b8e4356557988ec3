package commission

import (
	"github.com/smallbiznis/netcontrib/internal/commission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commission.service",
	fx.Provide(service.NewRunner),
	fx.Provide(service.NewService),
)
