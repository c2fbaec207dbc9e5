// Package daemon assembles the application: database, migrations, seed data,
// session store, tenant resolver, audit recorder and the web service.
package daemon

import (
	"fmt"

	mysqlstorage "github.com/gofiber/storage/mysql/v2"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/audit"
	"github.com/countersuite/countersuite/internal/config"
	"github.com/countersuite/countersuite/internal/db/dsn"
	"github.com/countersuite/countersuite/internal/db/models"
	"github.com/countersuite/countersuite/internal/tenant"
	"github.com/countersuite/countersuite/internal/web"
	"github.com/countersuite/countersuite/internal/web/session"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start runs the web service until a shutdown signal arrives.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	dbDriver := gormmysql.Open(dsn.Create(cfg))

	db, err := gorm.Open(dbDriver, &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Role{},
		&models.Permission{},
		&models.RolePermission{},
		&models.Membership{},
		&models.MembershipPermission{},
		&models.Customer{},
		&models.Setting{},
		&models.AuditEntry{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	seed(cfg, db)

	sessionStorage := mysqlstorage.New(mysqlstorage.Config{
		ConnectionURI: dsn.Create(cfg),
		Table:         "sessions",
	})

	session.Init(sessionStorage)

	resolver, err := tenant.NewResolver(db,
		cfg.Tenancy.RootDomain, cfg.Tenancy.CacheTTL, cfg.Tenancy.CacheSize)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create tenant resolver")
	}

	return &Daemon{
		cfg: cfg,
		webService: web.New(cfg, web.Deps{
			DB:       db,
			Resolver: resolver,
			Recorder: audit.NewRecorder(db),
		}),
	}
}
