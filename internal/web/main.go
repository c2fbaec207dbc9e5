// Package web wires the HTTP surface: the Fiber app, the tenant and
// permission middleware chain and every handler's routes.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/audit"
	"github.com/countersuite/countersuite/internal/auth"
	"github.com/countersuite/countersuite/internal/config"
	accesslog "github.com/countersuite/countersuite/internal/logger/adapter/fiber"
	"github.com/countersuite/countersuite/internal/tenant"
	"github.com/countersuite/countersuite/internal/web/handler"
	auditadmin "github.com/countersuite/countersuite/internal/web/handler/admin/audit"
	membershipadmin "github.com/countersuite/countersuite/internal/web/handler/admin/membership"
	roleadmin "github.com/countersuite/countersuite/internal/web/handler/admin/role"
	settingsadmin "github.com/countersuite/countersuite/internal/web/handler/admin/settings"
	tenantadmin "github.com/countersuite/countersuite/internal/web/handler/admin/tenants"
	oidchandler "github.com/countersuite/countersuite/internal/web/handler/auth/oidc"
	customerhandler "github.com/countersuite/countersuite/internal/web/handler/customer"
	"github.com/countersuite/countersuite/internal/web/handler/dashboard"
	"github.com/countersuite/countersuite/internal/web/handler/login"
	"github.com/countersuite/countersuite/internal/web/handler/logout"
	"github.com/countersuite/countersuite/internal/web/handler/me"
	"github.com/countersuite/countersuite/internal/web/middleware/tenantctx"
)

// HealthPath is the liveness probe path, exempt from tenant resolution.
const HealthPath = "/healthz"

// MetricsPath serves Prometheus metrics, exempt from tenant resolution.
const MetricsPath = "/metrics"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Deps are the shared components the web service wires into its middleware
// and handlers.
type Deps struct {
	DB       *gorm.DB
	Resolver *tenant.Resolver
	Recorder *audit.Recorder
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so the
	// health check returns fail and the LB drains this instance.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration and dependencies.
func New(cfg *config.Config, deps Deps) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if deps.DB == nil || deps.Resolver == nil || deps.Recorder == nil {
		panic("web service dependencies cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   jsonErrorHandler,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
		db:  deps.DB,
	}
	service.alive.Store(true)

	app.Use(accesslog.New(accesslog.Config{
		Config:        cfg.Log,
		CheckAliveURI: HealthPath,
	}))

	// Health and metrics sit outside tenant resolution.
	app.Get(HealthPath, service.healthz)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	// Resolve the acting tenant before anything touches tenant data.
	app.Use(tenantctx.New(tenantctx.Config{
		Resolver: deps.Resolver,
		Skip:     []string{HealthPath, MetricsPath},
	}))

	engine := auth.NewEngine(auth.NewService(deps.DB), auth.AdminBypassPolicy)
	mw := auth.NewMiddleware(engine, deps.Recorder)

	// Handlers register their own routes with their permission requirements.
	mustInit(login.Handler.Init(app, cfg, deps.DB))
	mustInit(logout.Handler.Init(app, cfg, deps.DB))
	mustInit(oidchandler.Handler.Init(app, cfg, deps.DB))
	mustInit(me.Handler.Init(app, cfg, deps.DB, mw))
	mustInit(dashboard.Handler.Init(app, cfg, deps.DB, mw))
	mustInit(customerhandler.Handler.Init(app, cfg, deps.DB, mw))
	mustInit(roleadmin.Handler.Init(app, cfg, deps.DB, mw))
	mustInit(membershipadmin.Handler.Init(app, cfg, deps.DB, mw))
	mustInit(settingsadmin.Handler.Init(app, cfg, deps.DB, mw))
	mustInit(auditadmin.Handler.Init(app, cfg, deps.DB, mw))
	mustInit(tenantadmin.Handler.Init(app, cfg, deps.DB, mw, deps.Resolver))

	return service
}

func (s *Service) healthz(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "draining"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

func mustInit(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg(handler.ErrNilACDFatalLogMsg)
	}
}

// jsonErrorHandler renders uncaught handler errors in the API's error envelope.
func jsonErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	if code == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
	}

	return c.Status(code).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    "HTTP_" + strconv.Itoa(code),
			"message": err.Error(),
		},
	})
}
