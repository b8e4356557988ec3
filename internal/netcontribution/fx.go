package netcontribution

import (
	"github.com/smallbiznis/netcontrib/internal/netcontribution/client"
	"github.com/smallbiznis/netcontrib/internal/netcontribution/service"
	"go.uber.org/fx"
)

var Module = fx.Module("netcontribution.service",
	fx.Provide(client.NewClient),
	fx.Provide(service.NewService),
)
