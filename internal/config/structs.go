package config

import (
	"time"

	"github.com/countersuite/countersuite/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Tenancy   Tenancy
	OIDC      OIDC
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath           bool    // use clean path middleware to allow multi slash requests
	DisableRecover      bool    // disable recover middleware
	Domain              string  // domain name for the webserver
	Port                int     // listening port for the webserver
	ShutDownTime        int     // wait time for shutdown
	URL                 string  // base url for the webserver
	CookieEncryptionKey string  // encryption key for cookies
	Session             Session // session settings
}

// Tenancy holds tenant-resolution settings.
type Tenancy struct {
	// RootDomain is the apex domain tenant subdomains hang off
	// (e.g. "countersuite.app" for "acme.countersuite.app").
	RootDomain string
	// CacheTTL bounds how long a resolved tenant may be served from cache.
	CacheTTL time.Duration
	// CacheSize caps the number of cached tenants.
	CacheSize int
}

// OIDC holds OpenID Connect SSO settings.
type OIDC struct {
	Enabled      bool
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}
