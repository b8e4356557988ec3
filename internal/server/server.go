package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/netcontrib/internal/commission"
	commissiondomain "github.com/smallbiznis/netcontrib/internal/commission/domain"
	"github.com/smallbiznis/netcontrib/internal/config"
	"github.com/smallbiznis/netcontrib/internal/locker"
	"github.com/smallbiznis/netcontrib/internal/netcontribution"
	netcontributiondomain "github.com/smallbiznis/netcontrib/internal/netcontribution/domain"
	"github.com/smallbiznis/netcontrib/internal/observability"
	obsmiddleware "github.com/smallbiznis/netcontrib/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/netcontrib/internal/observability/metrics"
	obstracing "github.com/smallbiznis/netcontrib/internal/observability/tracing"
	"github.com/smallbiznis/netcontrib/internal/paymententry"
	paymententrydomain "github.com/smallbiznis/netcontrib/internal/paymententry/domain"
	"github.com/smallbiznis/netcontrib/internal/salesinvoice"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	locker.Module,
	salesinvoice.Module,
	paymententry.Module,
	netcontribution.Module,
	commission.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	entrySvc   paymententrydomain.Service
	contribSvc netcontributiondomain.Service
	reportSvc  commissiondomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	EntrySvc   paymententrydomain.Service
	ContribSvc netcontributiondomain.Service
	ReportSvc  commissiondomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		entrySvc:   p.EntrySvc,
		contribSvc: p.ContribSvc,
		reportSvc:  p.ReportSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	entries := api.Group("/payment-entries")
	entries.GET("", s.ListPaymentEntries)
	entries.POST("/net-contribution/batch", s.RunNetContributionBatch)
	entries.GET("/:name", s.GetPaymentEntry)
	entries.PUT("/:name/references/:idx", s.UpdatePaymentEntryReference)
	entries.PUT("/:name/deductions", s.SetPaymentEntryDeductions)
	entries.POST("/:name/recompute", s.RecomputePaymentEntry)
	entries.POST("/:name/net-contribution", s.TriggerNetContribution)

	reports := api.Group("/reports")
	reports.GET("/sales-commission", s.RunSalesCommissionReport)
	reports.GET("/sales-commission/filters", s.SalesCommissionFilters)
}
