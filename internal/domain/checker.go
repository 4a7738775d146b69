package domain

import "strings"

// DisposableParent walks domain and its parent domains, returning the first
// one present in the disposable set. The walk stops before the bare TLD.
// Allow-listed names short-circuit the walk with no match.
func DisposableParent(s *Snapshot, domain string) (string, bool) {
	if s == nil {
		return "", false
	}

	host := Normalize(domain)
	for {
		if s.Allow.Contains(host) {
			return "", false
		}
		if s.Disposable.Contains(host) {
			return host, true
		}

		j := strings.IndexByte(host, '.')
		if j == -1 {
			break
		}
		host = host[j+1:]
		if strings.IndexByte(host, '.') == -1 {
			break
		}
	}
	return "", false
}
