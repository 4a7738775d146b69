package domain

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// ErrUnsafeEntry is returned when a TLD or a domain about to be persisted
// contains bytes outside the validated charset.
var ErrUnsafeEntry = errors.New("entry contains characters outside the allowed charset")

// TLDSet is the immutable table of known top-level domains, stored lowercase.
type TLDSet struct {
	list []string
	set  map[string]struct{}
}

// NewTLDSet builds a TLDSet from raw entries. Entries are trimmed and
// lowercased; a single entry outside [a-z0-9-] rejects the whole list.
func NewTLDSet(tlds []string) (TLDSet, error) {
	set := make(map[string]struct{}, len(tlds))
	list := make([]string, 0, len(tlds))
	for _, raw := range tlds {
		tld := Normalize(raw)
		if !isTLDCharset(tld) {
			return TLDSet{}, fmt.Errorf("tld %q: %w", raw, ErrUnsafeEntry)
		}
		if _, ok := set[tld]; ok {
			continue
		}
		set[tld] = struct{}{}
		list = append(list, tld)
	}
	sort.Strings(list)
	return TLDSet{list: list, set: set}, nil
}

// ParseTLDList reads the IANA tlds-alpha-by-domain.txt format: one TLD per
// line, comment lines start with '#'.
func ParseTLDList(r io.Reader) ([]string, error) {
	var tlds []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tlds = append(tlds, strings.ToLower(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tld list: %w", err)
	}
	return tlds, nil
}

// Has reports whether tld is in the table, ignoring case.
func (t TLDSet) Has(tld string) bool {
	_, ok := t.set[toLowerASCII(tld)]
	return ok
}

func (t TLDSet) Len() int { return len(t.list) }

// List returns a sorted copy of the table.
func (t TLDSet) List() []string {
	out := make([]string, len(t.list))
	copy(out, t.list)
	return out
}

func isTLDCharset(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isLowerAlnum(c) && c != '-' {
			return false
		}
	}
	return true
}
