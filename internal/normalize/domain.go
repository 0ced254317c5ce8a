package normalize

import (
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// LocalDevelopment is the sentinel domain that stands in for private,
// loopback, link-local and other non-global addresses (see IsPrivateAddr).
const LocalDevelopment = "local_development"

// ErrValidation marks input that is structurally unusable, such as a URL
// with no host.
var ErrValidation = errors.New("validation error")

// ExtractDomain returns the lowercase host of rawURL with any userinfo,
// port and leading "www." removed. A scheme is assumed when none is given.
// Private, loopback and link-local IP literals collapse to LocalDevelopment;
// other IP literals are returned unchanged.
func ExtractDomain(rawURL string) (string, error) {
	candidate := strings.TrimSpace(rawURL)
	if !strings.Contains(candidate, "://") {
		candidate = "http://" + candidate
	}

	host := ""
	if u, err := url.Parse(candidate); err == nil {
		host = u.Hostname()
	} else {
		host = hostFromAuthority(strings.SplitN(candidate, "://", 2)[1])
	}
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", fmt.Errorf("%w: could not extract domain from URL %q", ErrValidation, rawURL)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		if IsPrivateAddr(addr) {
			return LocalDevelopment, nil
		}
		return host, nil
	}

	if ascii, err := idna.Lookup.ToASCII(host); err == nil && ascii != "" {
		host = ascii
	}
	return host, nil
}

// hostFromAuthority is the fallback for URLs net/url refuses: it keeps the
// authority part, then drops userinfo and port.
func hostFromAuthority(rest string) string {
	authority := rest
	if i := strings.IndexAny(authority, "/?#"); i >= 0 {
		authority = authority[:i]
	}
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		authority = authority[i+1:]
	}
	if i := strings.Index(authority, ":"); i >= 0 {
		authority = authority[:i]
	}
	return authority
}

// specialPurpose lists the IANA special-purpose blocks that are not
// globally reachable and so count as private, alongside RFC 1918 and ULA.
var specialPurpose = prefixes(
	"0.0.0.0/8",
	"192.0.0.0/29",
	"192.0.0.170/31",
	"192.0.2.0/24",
	"198.18.0.0/15",
	"198.51.100.0/24",
	"203.0.113.0/24",
	"240.0.0.0/4",
	"::/128",
	"64:ff9b:1::/48",
	"100::/64",
	"2001::/23",
	"2001:db8::/32",
	"2002::/16",
)

// globalInSpecial are globally reachable carve-outs of 2001::/23.
var globalInSpecial = prefixes(
	"2001:1::1/128",
	"2001:1::2/128",
	"2001:3::/32",
	"2001:4:112::/48",
	"2001:20::/28",
	"2001:30::/28",
)

func prefixes(cidrs ...string) []netip.Prefix {
	out := make([]netip.Prefix, len(cidrs))
	for i, c := range cidrs {
		out[i] = netip.MustParsePrefix(c)
	}
	return out
}

func inAny(addr netip.Addr, list []netip.Prefix) bool {
	for _, p := range list {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

// IsPrivateAddr reports whether addr is private, loopback, link-local,
// unspecified, or inside a non-global special-purpose block such as the
// documentation and benchmarking ranges. IPv4-mapped IPv6 addresses are
// judged by their IPv4 form.
func IsPrivateAddr(addr netip.Addr) bool {
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	if addr.IsPrivate() || addr.IsLoopback() || addr.IsUnspecified() ||
		addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast() {
		return true
	}
	return inAny(addr, specialPurpose) && !inAny(addr, globalInSpecial)
}

// IsIPOrLocal reports whether domain is an IP literal or the sentinel.
func IsIPOrLocal(domain string) bool {
	if domain == LocalDevelopment {
		return true
	}
	_, err := netip.ParseAddr(domain)
	return err == nil
}

// Host canonicalises a stored domain value: the hostname when raw parses as a
// URL with a host, otherwise raw itself, trimmed and lowercased. Unlike
// ExtractDomain it keeps "www." so stored keys are matched as written.
func Host(raw string) string {
	name := raw
	if u, err := url.Parse(raw); err == nil && u.Hostname() != "" {
		name = u.Hostname()
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// ShouldSkipURL reports whether rawURL should be ignored by loaders. Only
// http(s) and scheme-less URLs are kept. file, mailto and chrome-extension
// are dropped silently; any other scheme comes back with a warning.
func ShouldSkipURL(rawURL string) (bool, string) {
	scheme := ""
	if u, err := url.Parse(rawURL); err == nil {
		scheme = strings.ToLower(u.Scheme)
	} else if i := strings.Index(rawURL, "://"); i > 0 {
		scheme = strings.ToLower(rawURL[:i])
	}

	switch scheme {
	case "", "http", "https":
		return false, ""
	case "file", "mailto", "chrome-extension":
		return true, ""
	}
	return true, fmt.Sprintf("Skipping unsupported scheme '%s' for URL: %s", scheme, rawURL)
}
