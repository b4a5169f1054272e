package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	billdomain "github.com/solventlabs/solvent/internal/bill/domain"
	bonuspooldomain "github.com/solventlabs/solvent/internal/bonuspool/domain"
	catalogdomain "github.com/solventlabs/solvent/internal/catalog/domain"
	completiondomain "github.com/solventlabs/solvent/internal/completion/domain"
	"github.com/solventlabs/solvent/internal/config"
	ledgerdomain "github.com/solventlabs/solvent/internal/ledger/domain"
	memberdomain "github.com/solventlabs/solvent/internal/member/domain"
	orderdomain "github.com/solventlabs/solvent/internal/order/domain"
	partnerdomain "github.com/solventlabs/solvent/internal/partner/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

type Server struct {
	engine        *gin.Engine
	log           *zap.Logger
	completionSvc completiondomain.Service
	orderSvc      orderdomain.Service
	memberSvc     memberdomain.Service
	catalogSvc    catalogdomain.Service
	partnerSvc    partnerdomain.Service
	poolSvc       bonuspooldomain.Service
	ledgerSvc     ledgerdomain.Service
	billSvc       billdomain.Service
}

type ServerParams struct {
	fx.In

	Engine        *gin.Engine
	Log           *zap.Logger
	CompletionSvc completiondomain.Service
	OrderSvc      orderdomain.Service
	MemberSvc     memberdomain.Service
	CatalogSvc    catalogdomain.Service
	PartnerSvc    partnerdomain.Service
	PoolSvc       bonuspooldomain.Service
	LedgerSvc     ledgerdomain.Service
	BillSvc       billdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:        p.Engine,
		log:           p.Log.Named("http.server"),
		completionSvc: p.CompletionSvc,
		orderSvc:      p.OrderSvc,
		memberSvc:     p.MemberSvc,
		catalogSvc:    p.CatalogSvc,
		partnerSvc:    p.PartnerSvc,
		poolSvc:       p.PoolSvc,
		ledgerSvc:     p.LedgerSvc,
		billSvc:       p.BillSvc,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	r := s.engine

	r.POST("/webhooks/payments/:provider", s.handlePaymentWebhook)

	v1 := r.Group("/v1")
	{
		v1.POST("/checkout/complete", s.handleCheckoutComplete)
		v1.POST("/orders", s.handleCreateOrder)
		v1.GET("/orders/:id", s.handleGetOrder)
		v1.GET("/products", s.handleListProducts)
	}

	admin := r.Group("/admin")
	{
		admin.GET("/cycles", s.handleListCycles)
		admin.GET("/cycles/open", s.handleOpenCycle)
		admin.GET("/cycles/:id", s.handleGetCycle)
		admin.GET("/members/:id", s.handleGetMember)
		admin.GET("/members/:id/ledger", s.handleMemberLedger)
		admin.GET("/members/:id/balances", s.handleMemberBalances)
		admin.GET("/partners", s.handleListPartners)
		admin.POST("/partners", s.handleCreatePartner)
		admin.POST("/partners/:id/tokens", s.handleAdjustTokens)
		admin.GET("/orders/:id/bill", s.handleGetOrderBill)
		admin.POST("/orders/:id/status", s.handleUpdateOrderStatus)
		admin.POST("/products", s.handleCreateProduct)
	}
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
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
