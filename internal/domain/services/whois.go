package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdaplib "github.com/openrdap/rdap"

	"phishscan/internal/domain/models"
	"phishscan/internal/infrastructure/cache"
	"phishscan/pkg/logger"
)

// WhoisClient resolves registration data for a registered domain
type WhoisClient interface {
	Lookup(ctx context.Context, domain string) (*models.WhoisRecord, error)
}

// RDAPWhoisClient implements WhoisClient over the RDAP protocol, with an
// optional Redis cache in front of the network lookup.
type RDAPWhoisClient struct {
	rdapClient *rdaplib.Client
	cache      *cache.RedisCache
	cacheTTL   time.Duration
	timeout    time.Duration
	logger     *logger.Logger
}

// RDAPOption configures the RDAP client
type RDAPOption func(*RDAPWhoisClient)

// WithWhoisCache enables caching of lookups keyed by registered domain
func WithWhoisCache(c *cache.RedisCache, ttl time.Duration) RDAPOption {
	return func(w *RDAPWhoisClient) {
		w.cache = c
		w.cacheTTL = ttl
	}
}

// WithWhoisTimeout overrides the per-lookup timeout
func WithWhoisTimeout(timeout time.Duration) RDAPOption {
	return func(w *RDAPWhoisClient) {
		if timeout > 0 {
			w.timeout = timeout
		}
	}
}

// NewRDAPWhoisClient creates a WHOIS client backed by RDAP
func NewRDAPWhoisClient(log *logger.Logger, opts ...RDAPOption) *RDAPWhoisClient {
	w := &RDAPWhoisClient{
		rdapClient: &rdaplib.Client{},
		cacheTTL:   6 * time.Hour,
		timeout:    10 * time.Second,
		logger:     log.WithComponent("whois"),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Lookup returns the registration record for a registered domain
func (w *RDAPWhoisClient) Lookup(ctx context.Context, domain string) (*models.WhoisRecord, error) {
	domain = strings.TrimSpace(strings.ToLower(domain))
	if domain == "" {
		return nil, fmt.Errorf("empty domain")
	}

	if w.cache != nil {
		var cached models.WhoisRecord
		if err := w.cache.GetCachedWhois(ctx, domain, &cached); err == nil {
			return &cached, nil
		}
	}

	req := &rdaplib.Request{
		Type:    rdaplib.DomainRequest,
		Query:   domain,
		Timeout: w.timeout,
	}
	req = req.WithContext(ctx)

	resp, err := w.rdapClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("RDAP query for %s: %w", domain, err)
	}

	domainObj, ok := resp.Object.(*rdaplib.Domain)
	if !ok || domainObj == nil {
		return nil, fmt.Errorf("RDAP query for %s returned unexpected object", domain)
	}

	record := buildWhoisRecord(domain, domainObj)

	if w.cache != nil {
		if err := w.cache.CacheWhois(ctx, domain, record, w.cacheTTL); err != nil {
			w.logger.Debug().Err(err).Str("domain", domain).Msg("failed to cache WHOIS record")
		}
	}

	return record, nil
}

func buildWhoisRecord(domain string, d *rdaplib.Domain) *models.WhoisRecord {
	record := &models.WhoisRecord{Domain: domain}

	for _, event := range d.Events {
		parsed, err := time.Parse(time.RFC3339, event.Date)
		if err != nil {
			continue
		}

		t := parsed
		switch strings.ToLower(event.Action) {
		case "registration":
			record.CreatedAt = &t
		case "expiration":
			record.ExpiresAt = &t
		}
	}

	for _, entity := range d.Entities {
		for _, role := range entity.Roles {
			if strings.EqualFold(role, "registrar") {
				if entity.VCard != nil {
					record.Registrar = entity.VCard.Name()
				} else if entity.Handle != "" {
					record.Registrar = entity.Handle
				}
				break
			}
		}
	}

	for _, ns := range d.Nameservers {
		if ns.LDHName != "" {
			record.NameServers = append(record.NameServers, strings.ToLower(ns.LDHName))
		}
	}

	return record
}
