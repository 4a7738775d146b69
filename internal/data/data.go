// Package data embeds the generated registry and the IANA TLD table so the
// checker works without a data directory.
package data

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
	"github.com/doodad-labs/throwaway-email-checker/internal/registry"
)

var (
	//go:embed tlds.txt
	tldsTXT []byte

	//go:embed domains.txt
	disposableTXT []byte

	//go:embed allow_list.txt
	allowTXT []byte
)

// TLDs parses the embedded TLD table.
func TLDs() (domain.TLDSet, error) {
	raw, err := domain.ParseTLDList(bytes.NewReader(tldsTXT))
	if err != nil {
		return domain.TLDSet{}, fmt.Errorf("embedded tlds: %w", err)
	}
	return domain.NewTLDSet(raw)
}

// Snapshot builds a fresh lookup snapshot from the embedded files.
func Snapshot() (*domain.Snapshot, error) {
	tlds, err := TLDs()
	if err != nil {
		return nil, err
	}
	disposable, err := registry.ParseList(bytes.NewReader(disposableTXT))
	if err != nil {
		return nil, fmt.Errorf("embedded disposable list: %w", err)
	}
	allow, err := registry.ParseList(bytes.NewReader(allowTXT))
	if err != nil {
		return nil, fmt.Errorf("embedded allowlist: %w", err)
	}

	return &domain.Snapshot{
		TLDs:        tlds,
		Disposable:  domain.NewDomainSet(disposable),
		Allow:       domain.NewDomainSet(allow),
		GeneratedAt: registry.ParseGeneratedAt(disposableTXT),
		LoadedAt:    time.Now(),
	}, nil
}

// Loader serves the embedded snapshot to the registry updater.
type Loader struct{}

func (Loader) LoadSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Snapshot()
}
