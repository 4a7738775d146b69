package domain

import (
	"strings"
)

const (
	maxDomainLen = 253
	maxLabelLen  = 63
)

// Normalize trims surrounding whitespace and lowercases a domain or email.
func Normalize(raw string) string {
	return toLowerASCII(strings.TrimSpace(raw))
}

// ValidateDomain reports whether raw is a structurally valid domain whose
// TLD is present in tlds. Letters may be in any case; raw is not trimmed.
func ValidateDomain(raw string, tlds TLDSet) bool {
	if raw == "" || len(raw) > maxDomainLen {
		return false
	}
	if raw[0] == '.' || raw[len(raw)-1] == '.' || strings.TrimSpace(raw) != raw {
		return false
	}

	labels := strings.Split(raw, ".")
	if len(labels) < 2 {
		return false
	}
	if !tlds.Has(labels[len(labels)-1]) {
		return false
	}
	for _, label := range labels {
		if !validLabel(label) {
			return false
		}
	}

	if strings.Contains(raw, "..") {
		return false
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if !isAlnum(c) && c != '.' && c != '-' {
			return false
		}
	}
	return true
}

// validLabel matches [a-z0-9]([a-z0-9-]{0,61}[a-z0-9])? ignoring case.
func validLabel(label string) bool {
	n := len(label)
	if n == 0 || n > maxLabelLen {
		return false
	}
	if !isAlnum(label[0]) || !isAlnum(label[n-1]) {
		return false
	}
	for i := 1; i < n-1; i++ {
		if c := label[i]; !isAlnum(c) && c != '-' {
			return false
		}
	}
	return true
}

// IsSafeDomain reports whether s only uses bytes allowed in a persisted
// registry entry: lowercase letters, digits, '.' and '-'.
func IsSafeDomain(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isLowerAlnum(c) && c != '.' && c != '-' {
			return false
		}
	}
	return true
}

// ExtractDomain returns the normalized part after the last '@', or the
// normalized input itself when it has no '@'.
func ExtractDomain(s string) string {
	s = Normalize(s)
	if at := strings.LastIndexByte(s, '@'); at != -1 {
		return s[at+1:]
	}
	return s
}

func toLowerASCII(s string) string {
	upper := false
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			upper = true
			break
		}
	}
	if !upper {
		return s
	}

	b := []byte(s)
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func isLowerAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
