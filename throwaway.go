// Package throwaway validates email addresses and detects disposable
// (throwaway) email domains.
//
// The package-level functions use the registry and TLD table embedded at
// build time. Use New or NewFromDir to check against other data.
package throwaway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/doodad-labs/throwaway-email-checker/internal/data"
	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
	"github.com/doodad-labs/throwaway-email-checker/internal/registry"
)

// Option adjusts a single IsValidEmail call.
type Option func(*domain.ValidationConfig)

// WithoutTLDCheck accepts any syntactically valid TLD.
func WithoutTLDCheck() Option {
	return func(c *domain.ValidationConfig) { c.ValidateTLD = false }
}

// AllowDisposable accepts addresses on disposable domains.
func AllowDisposable() Option {
	return func(c *domain.ValidationConfig) { c.BlockDisposables = false }
}

// Checker answers validation queries against one immutable snapshot.
// It is safe for concurrent use.
type Checker struct {
	snap *domain.Snapshot
}

// New builds a Checker from raw lists. Entries are normalized; a TLD
// outside [a-z0-9-] is an error.
func New(tlds, disposable, allow []string) (*Checker, error) {
	set, err := domain.NewTLDSet(tlds)
	if err != nil {
		return nil, err
	}
	norm := func(in []string) []string {
		out := make([]string, len(in))
		for i, d := range in {
			out[i] = domain.Normalize(d)
		}
		return out
	}
	return &Checker{snap: &domain.Snapshot{
		TLDs:       set,
		Disposable: domain.NewDomainSet(norm(disposable)),
		Allow:      domain.NewDomainSet(norm(allow)),
		LoadedAt:   time.Now(),
	}}, nil
}

// NewFromDir loads a Checker from a data directory written by the
// aggregate command.
func NewFromDir(ctx context.Context, dir string) (*Checker, error) {
	s, err := registry.NewFileStore(dir).LoadSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}
	return &Checker{snap: s}, nil
}

var defaultChecker = sync.OnceValue(func() *Checker {
	s, err := data.Snapshot()
	if err != nil {
		panic(fmt.Sprintf("throwaway: embedded data is broken: %v", err))
	}
	return &Checker{snap: s}
})

// Default returns the Checker backed by the embedded data.
func Default() *Checker { return defaultChecker() }

// IsValidEmail reports whether email is well formed, has a known TLD and
// is not on a disposable domain. Options relax the last two checks.
func (c *Checker) IsValidEmail(email string, opts ...Option) bool {
	cfg := domain.DefaultValidationConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return c.snap.IsValidEmail(email, cfg)
}

// ValidateDomain reports whether d is a valid domain with a known TLD.
func (c *Checker) ValidateDomain(d string) bool {
	return c.snap.ValidateDomain(d)
}

// IsDisposable reports whether a domain, or the domain of an address, is
// a known disposable one. Matching is exact; subdomains do not inherit.
func (c *Checker) IsDisposable(domainOrEmail string) bool {
	return c.snap.Disposable.Contains(domain.ExtractDomain(domainOrEmail))
}

// IsAllowed reports whether a domain is on the manual allowlist.
func (c *Checker) IsAllowed(domainOrEmail string) bool {
	return c.snap.Allow.Contains(domain.ExtractDomain(domainOrEmail))
}

func (c *Checker) TLDs() []string              { return c.snap.TLDs.List() }
func (c *Checker) DisposableDomains() []string { return c.snap.Disposable.List() }
func (c *Checker) AllowedDomains() []string    { return c.snap.Allow.List() }

// GeneratedAt is the registry timestamp, zero when unknown.
func (c *Checker) GeneratedAt() time.Time { return c.snap.GeneratedAt }

func IsValidEmail(email string, opts ...Option) bool { return Default().IsValidEmail(email, opts...) }
func ValidateDomain(d string) bool                   { return Default().ValidateDomain(d) }
func IsDisposable(domainOrEmail string) bool         { return Default().IsDisposable(domainOrEmail) }
func TLDs() []string                                 { return Default().TLDs() }
func DisposableDomains() []string                    { return Default().DisposableDomains() }
func AllowedDomains() []string                       { return Default().AllowedDomains() }
