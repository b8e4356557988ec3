package migration

import (
	commissiondomain "github.com/smallbiznis/netcontrib/internal/commission/domain"
	"github.com/smallbiznis/netcontrib/internal/config"
	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	salesinvoicedomain "github.com/smallbiznis/netcontrib/internal/salesinvoice/domain"
	"github.com/smallbiznis/netcontrib/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// Non-postgres targets (sqlite for local runs, mysql)
			// fall back to schema auto-migration.
			if err := conn.AutoMigrate(
				&paymententrydomain.PaymentEntry{},
				&paymententrydomain.PaymentEntryReference{},
				&paymententrydomain.PaymentEntryDeduction{},
				&salesinvoicedomain.SalesInvoice{},
				&commissiondomain.CommissionRow{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedSampleData {
			return seed.EnsureSampleData(conn)
		}
		return nil
	}),
)
