// Package tenant resolves the acting tenant for a request and enforces that
// the resolved tenant exists and is active. Resolution fails closed: an
// unknown subdomain or a suspended tenant is a denial, never a fallback to
// some default tenant.
package tenant

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"

	"github.com/countersuite/countersuite/internal/db/models"
)

// cacheEntry pairs a tenant snapshot with its fetch time so the resolver can
// enforce the TTL with an injected clock.
type cacheEntry struct {
	tenant    models.Tenant
	fetchedAt time.Time
}

// Resolver looks up tenants by subdomain or ID with a bounded-TTL read cache.
// The cache is owned by the resolver instance, not package state, so its
// lifecycle (creation, invalidation, teardown) is explicit and testable.
type Resolver struct {
	db         *gorm.DB
	cache      *lru.Cache[string, cacheEntry]
	rootDomain string
	ttl        time.Duration
	now        func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock overrides the time source, used by tests to age cache entries.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a tenant resolver.
// rootDomain is the apex domain tenant subdomains hang off; ttl bounds cache
// staleness and size caps the number of cached tenants.
func NewResolver(db *gorm.DB, rootDomain string, ttl time.Duration, size int, opts ...Option) (*Resolver, error) {
	cache, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant cache: %w", err)
	}

	r := &Resolver{
		db:         db,
		cache:      cache,
		rootDomain: strings.ToLower(rootDomain),
		ttl:        ttl,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// SubdomainFromHost extracts the tenant subdomain candidate from a request
// host. It returns an empty string when the host is the apex domain itself or
// does not belong to the configured root domain.
func (r *Resolver) SubdomainFromHost(host string) string {
	host = strings.ToLower(host)

	// strip port
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}

	if host == r.rootDomain {
		return ""
	}

	suffix := "." + r.rootDomain
	if !strings.HasSuffix(host, suffix) {
		return ""
	}

	sub := strings.TrimSuffix(host, suffix)
	if sub == "" || strings.Contains(sub, ".") {
		return ""
	}

	return sub
}

// ResolveSubdomain resolves a tenant by its subdomain.
// Returns ErrNoCandidate for an empty subdomain, ErrTenantNotFound when no
// tenant matches and ErrTenantInactive when the tenant is not active.
func (r *Resolver) ResolveSubdomain(subdomain string) (*models.Tenant, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if subdomain == "" {
		return nil, ErrNoCandidate
	}

	return r.lookup("sub:"+subdomain, func() (*models.Tenant, error) {
		var t models.Tenant

		err := r.db.Where("subdomain = ?", subdomain).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}

		if err != nil {
			return nil, fmt.Errorf("failed to look up tenant by subdomain: %w", err)
		}

		return &t, nil
	})
}

// ResolveID resolves a tenant by its internal ID, used for session-pinned tenants.
func (r *Resolver) ResolveID(id uint64) (*models.Tenant, error) {
	if id == 0 {
		return nil, ErrNoCandidate
	}

	return r.lookup("id:"+strconv.FormatUint(id, 10), func() (*models.Tenant, error) {
		var t models.Tenant

		err := r.db.First(&t, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTenantNotFound
		}

		if err != nil {
			return nil, fmt.Errorf("failed to look up tenant by id: %w", err)
		}

		return &t, nil
	})
}

// lookup serves from cache within the TTL, otherwise fetches and caches.
// Only the existence lookup is cached; the active-status check runs on every
// call so a suspended tenant is rejected as soon as the cache is invalidated.
func (r *Resolver) lookup(key string, fetch func() (*models.Tenant, error)) (*models.Tenant, error) {
	if entry, ok := r.cache.Get(key); ok && r.now().Sub(entry.fetchedAt) < r.ttl {
		t := entry.tenant
		return r.checkActive(&t)
	}

	t, err := fetch()
	if err != nil {
		return nil, err
	}

	r.cache.Add(key, cacheEntry{tenant: *t, fetchedAt: r.now()})
	r.cache.Add("id:"+strconv.FormatUint(t.ID, 10), cacheEntry{tenant: *t, fetchedAt: r.now()})

	return r.checkActive(t)
}

func (r *Resolver) checkActive(t *models.Tenant) (*models.Tenant, error) {
	if !t.IsActive() {
		return nil, ErrTenantInactive
	}

	return t, nil
}

// Invalidate drops a tenant from the cache. It must be called on any tenant
// status mutation so a suspension takes effect before the TTL expires.
func (r *Resolver) Invalidate(t *models.Tenant) {
	if t == nil {
		return
	}

	r.cache.Remove("sub:" + strings.ToLower(t.Subdomain))
	r.cache.Remove("id:" + strconv.FormatUint(t.ID, 10))
}

// Purge empties the cache entirely.
func (r *Resolver) Purge() {
	r.cache.Purge()
}
