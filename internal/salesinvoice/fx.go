package salesinvoice

import (
	"github.com/smallbiznis/netcontrib/internal/salesinvoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("salesinvoice.service",
	fx.Provide(service.NewService),
)
