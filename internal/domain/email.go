package domain

import "strings"

const (
	maxEmailLen = 254
	minEmailLen = 6 // a@b.cd
	maxLocalLen = 64
)

// IsValidEmail checks the structure of email in one forward pass.
//
// The local part accepts letters, digits, '.', '"' and the RFC 5322 atext
// specials. Quotes are plain characters here; there is no quoted-string
// parsing. Domain labels are not length-checked, only their characters and
// dot placement.
func IsValidEmail(email string, tlds TLDSet, disposable DomainSet, cfg ValidationConfig) bool {
	n := len(email)
	if n == 0 || n > maxEmailLen || n < minEmailLen {
		return false
	}

	at := strings.IndexByte(email, '@')
	if at <= 0 || at == n-1 || at > maxLocalLen || n-at-1 > maxDomainLen {
		return false
	}
	if strings.IndexByte(email[at+1:], '@') != -1 {
		return false
	}

	if cfg.BlockDisposables && disposable.Contains(toLowerASCII(email[at+1:])) {
		return false
	}

	prevDot := false
	for i := 0; i < at; i++ {
		c := email[i]
		if c == '.' {
			if i == 0 || i == at-1 || prevDot {
				return false
			}
			prevDot = true
			continue
		}
		prevDot = false
		if !isAlnum(c) && !isLocalSpecial(c) {
			return false
		}
	}

	for i := at + 1; i < n; i++ {
		c := email[i]
		if c == '.' {
			if i == at+1 || i == n-1 || email[i-1] == '.' {
				return false
			}
			continue
		}
		if !isAlnum(c) && c != '-' {
			return false
		}
	}

	lastDot := strings.LastIndexByte(email, '.')
	if lastDot == -1 || lastDot < at+2 || n-lastDot < 3 {
		return false
	}

	if cfg.ValidateTLD && !tlds.Has(email[lastDot+1:]) {
		return false
	}
	return true
}

// isLocalSpecial reports the non-alphanumeric bytes allowed in a local part.
func isLocalSpecial(c byte) bool {
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '/', '=', '?',
		'^', '_', '`', '{', '|', '}', '~', '"':
		return true
	}
	return false
}
