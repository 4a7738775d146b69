package registry

import (
	"sync/atomic"

	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
)

// Holder publishes the current snapshot to concurrent readers.
type Holder struct {
	value atomic.Pointer[domain.Snapshot]
}

// NewHolder starts with an empty snapshot so Get never returns nil.
func NewHolder() *Holder {
	h := &Holder{}
	h.value.Store(&domain.Snapshot{})
	return h
}

func (h *Holder) Get() *domain.Snapshot {
	return h.value.Load()
}

func (h *Holder) Set(s *domain.Snapshot) {
	h.value.Store(s)
}

// Ready reports whether a loaded snapshot with a TLD table is published.
func (h *Holder) Ready() bool {
	s := h.Get()
	return s != nil && !s.LoadedAt.IsZero() && s.TLDs.Len() > 0
}
