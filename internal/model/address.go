package model

import (
	"errors"
	"net"
	"strings"

	"golang.org/x/net/idna"
)

// Address normalization errors.
var (
	// ErrEmptyAddress is returned when the raw address is empty or whitespace.
	ErrEmptyAddress = errors.New("instance address cannot be empty")
	// ErrInvalidAddress is returned when the address is structurally invalid.
	ErrInvalidAddress = errors.New("invalid instance address")
)

// CanonicalAddress is the normalized identity of a federated instance:
// a lowercased host (punycode for internationalized names) with no scheme,
// no userinfo, no path, and no trailing dot. An explicit port is preserved.
//
// Byte-wise equality of two CanonicalAddress values is instance identity.
// The visited-set deduplication in the crawler depends on Normalize being
// a pure function, so CanonicalAddress values must only ever be produced
// by Normalize.
type CanonicalAddress string

// String returns the address as a plain string.
func (a CanonicalAddress) String() string {
	return string(a)
}

// Normalize canonicalizes a raw instance reference into a CanonicalAddress.
//
// It tolerates the noise found in real federation lists: scheme prefixes
// ("https://example.com"), userinfo, paths, query strings, fragments, and
// trailing dots are all stripped. The host is lowercased and, for Unicode
// hostnames, converted to punycode via the IDNA lookup profile, which also
// rejects structurally invalid labels.
//
// Normalize is pure and idempotent: the same input always yields the same
// output, and normalizing a canonical address returns it unchanged.
func Normalize(raw string) (CanonicalAddress, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrEmptyAddress
	}

	// Strip any scheme prefix ("https://", "wss://", ...).
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+len("://"):]
	}
	// Strip path, query, and fragment suffixes. This must happen before
	// userinfo stripping: an "@" after the first "/" belongs to the path
	// (the common profile form "mastodon.social/@user"), not to userinfo.
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	// Strip userinfo from the remaining authority.
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return "", ErrEmptyAddress
	}

	host, port, err := splitHostPort(s)
	if err != nil {
		return "", err
	}

	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if host == "" {
		return "", ErrEmptyAddress
	}

	// IP literals pass through without IDNA processing.
	if ip := net.ParseIP(strings.Trim(host, "[]")); ip == nil {
		host, err = idna.Lookup.ToASCII(host)
		if err != nil {
			return "", ErrInvalidAddress
		}
	}

	if port != "" {
		return CanonicalAddress(host + ":" + port), nil
	}
	return CanonicalAddress(host), nil
}

// splitHostPort separates an optional port from the host part.
// Unlike net.SplitHostPort it treats a missing port as valid.
func splitHostPort(s string) (host, port string, err error) {
	// Bracketed IPv6 literal, possibly with a port.
	if strings.HasPrefix(s, "[") {
		end := strings.Index(s, "]")
		if end < 0 {
			return "", "", ErrInvalidAddress
		}
		host = s[:end+1]
		rest := s[end+1:]
		if rest == "" {
			return host, "", nil
		}
		if !strings.HasPrefix(rest, ":") {
			return "", "", ErrInvalidAddress
		}
		port = rest[1:]
		if !isValidPort(port) {
			return "", "", ErrInvalidAddress
		}
		return host, port, nil
	}

	// An unbracketed value with multiple colons is a bare IPv6 literal.
	if strings.Count(s, ":") > 1 {
		return s, "", nil
	}

	if i := strings.Index(s, ":"); i >= 0 {
		host = s[:i]
		port = s[i+1:]
		if !isValidPort(port) {
			return "", "", ErrInvalidAddress
		}
		return host, port, nil
	}
	return s, "", nil
}

// isValidPort reports whether s is a decimal port number in [1, 65535].
func isValidPort(s string) bool {
	if s == "" {
		return false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
		n = n*10 + int(c-'0')
		if n > 65535 {
			return false
		}
	}
	return n >= 1
}
