package registry

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
)

const lastUpdatedPrefix = "# Last updated: "

var (
	disposableHeader = []string{
		"# AUTO-GENERATED FILE - DO NOT EDIT DIRECTLY",
		"# Data sourced from various disposable email domain lists",
	}
	allowHeader = []string{
		"# a manual allow list, this allows contributors to add domains that may be false flagged",
		"# some domains may have been sourced from external lists, but this is primarily for manual additions",
	}
)

// Artifact is the output of one aggregation run. Both lists are sorted and
// free of duplicates; they never share an entry.
type Artifact struct {
	Disposable   []string
	Allow        []string
	BlockSources []string // provenance, rendered into the disposable header
	AllowSources []string // provenance, rendered into the allow header
	GeneratedAt  time.Time
}

// DisposableText renders the disposable list in its persisted text form.
func (a *Artifact) DisposableText() ([]byte, error) {
	header := append([]string{}, disposableHeader...)
	header = append(header, provenance(a.BlockSources)...)
	header = append(header, lastUpdatedPrefix+a.GeneratedAt.UTC().Format(time.RFC3339))
	return renderList(header, a.Disposable)
}

// AllowText renders the allowlist in its persisted text form. It carries no
// timestamp, so unchanged allowlists produce unchanged files.
func (a *Artifact) AllowText() ([]byte, error) {
	header := append([]string{}, allowHeader...)
	header = append(header, provenance(a.AllowSources)...)
	return renderList(header, a.Allow)
}

// Snapshot converts the artifact into the lookup form used by validators.
func (a *Artifact) Snapshot(tlds domain.TLDSet) *domain.Snapshot {
	return &domain.Snapshot{
		TLDs:        tlds,
		Disposable:  domain.NewDomainSet(a.Disposable),
		Allow:       domain.NewDomainSet(a.Allow),
		GeneratedAt: a.GeneratedAt,
	}
}

func provenance(urls []string) []string {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		out = append(out, "# - "+u)
	}
	return out
}

func renderList(header, entries []string) ([]byte, error) {
	var buf bytes.Buffer
	for _, line := range header {
		if strings.ContainsAny(line, "\r\n") {
			return nil, fmt.Errorf("header line %q: %w", line, domain.ErrUnsafeEntry)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	for _, e := range entries {
		if !domain.IsSafeDomain(e) {
			return nil, fmt.Errorf("domain %q: %w", e, domain.ErrUnsafeEntry)
		}
		buf.WriteString(e)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ParseList reads the line-oriented text form. Blank lines and lines
// starting with '#' are skipped; entries are trimmed and lowercased but
// not validated.
func ParseList(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, domain.Normalize(line))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read list: %w", err)
	}
	return out, nil
}

// ParseGeneratedAt returns the timestamp from a "# Last updated:" header
// line, or the zero time when there is none.
func ParseGeneratedAt(data []byte) time.Time {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "#") {
			if strings.TrimSpace(line) != "" {
				break
			}
			continue
		}
		if v, ok := strings.CutPrefix(line, lastUpdatedPrefix); ok {
			if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v)); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

// StripTimestamp drops the "# Last updated:" line so two renderings can be
// compared for content equality.
func StripTimestamp(data []byte) []byte {
	var buf bytes.Buffer
	for _, line := range bytes.SplitAfter(data, []byte("\n")) {
		if bytes.HasPrefix(line, []byte(lastUpdatedPrefix)) {
			continue
		}
		buf.Write(line)
	}
	return buf.Bytes()
}
