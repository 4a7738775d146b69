package domain

import (
	"sort"
	"time"
)

// DomainSet is an immutable set of normalized domains. The sorted slice is
// kept next to the map so listings are deterministic without re-sorting.
type DomainSet struct {
	list []string
	set  map[string]struct{}
}

// NewDomainSet copies entries, drops duplicates and sorts them in byte order.
// Entries are stored as given; callers normalize first.
func NewDomainSet(entries []string) DomainSet {
	set := make(map[string]struct{}, len(entries))
	list := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := set[e]; ok {
			continue
		}
		set[e] = struct{}{}
		list = append(list, e)
	}
	sort.Strings(list)
	return DomainSet{list: list, set: set}
}

func (s DomainSet) Contains(domain string) bool {
	_, ok := s.set[domain]
	return ok
}

func (s DomainSet) Len() int { return len(s.list) }

// List returns a sorted copy of the set.
func (s DomainSet) List() []string {
	out := make([]string, len(s.list))
	copy(out, s.list)
	return out
}

// ValidationConfig toggles the optional checks of IsValidEmail.
type ValidationConfig struct {
	ValidateTLD      bool // TLD must be present in the TLD table
	BlockDisposables bool // reject domains found in the disposable set
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{ValidateTLD: true, BlockDisposables: true}
}

// Snapshot is the read-only lookup state used at validation time.
// A new Snapshot replaces the old one on reload; it is never mutated.
type Snapshot struct {
	TLDs        TLDSet
	Disposable  DomainSet
	Allow       DomainSet
	GeneratedAt time.Time // from the artifact header, zero if unknown
	LoadedAt    time.Time
}

// IsValidEmail validates email against the snapshot's TLD and disposable sets.
func (s *Snapshot) IsValidEmail(email string, cfg ValidationConfig) bool {
	return IsValidEmail(email, s.TLDs, s.Disposable, cfg)
}

func (s *Snapshot) ValidateDomain(raw string) bool {
	return ValidateDomain(raw, s.TLDs)
}

// IsDisposable reports whether the normalized domain is a known disposable one.
func (s *Snapshot) IsDisposable(domain string) bool {
	return s.Disposable.Contains(Normalize(domain))
}

func (s *Snapshot) IsAllowed(domain string) bool {
	return s.Allow.Contains(Normalize(domain))
}
