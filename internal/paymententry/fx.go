package paymententry

import (
	"github.com/smallbiznis/netcontrib/internal/paymententry/service"
	"go.uber.org/fx"
)

var Module = fx.Module("paymententry.service",
	fx.Provide(service.NewService),
)
