package server

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// OriginChecker validates the Origin header of websocket upgrades.
type OriginChecker struct {
	any     bool
	origins map[string]struct{}
}

// NewOriginChecker accepts every origin when the list contains "*".
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		if o == "*" {
			oc.any = true
		}
		oc.origins[strings.ToLower(o)] = struct{}{}
	}
	return oc
}

// Check lets through requests without an Origin header; the terminal client
// never sends one.
func (oc *OriginChecker) Check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if oc.any || origin == "" {
		return true
	}
	_, ok := oc.origins[strings.ToLower(origin)]
	return ok
}

// IPFilter admits or rejects clients by address. It is built once from
// configuration and never changes afterwards.
type IPFilter struct {
	allow []netip.Prefix
	deny  []netip.Prefix
}

// NewIPFilter parses both lists. Entries are plain addresses or CIDR prefixes.
func NewIPFilter(whitelist, blacklist []string) (*IPFilter, error) {
	allow, err := parsePrefixes(whitelist)
	if err != nil {
		return nil, fmt.Errorf("whitelist: %w", err)
	}
	deny, err := parsePrefixes(blacklist)
	if err != nil {
		return nil, fmt.Errorf("blacklist: %w", err)
	}
	return &IPFilter{allow: allow, deny: deny}, nil
}

func parsePrefixes(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(e, "/") {
			p, err := netip.ParsePrefix(e)
			if err != nil {
				return nil, err
			}
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(e)
		if err != nil {
			return nil, err
		}
		a = a.Unmap()
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func matchAny(prefixes []netip.Prefix, a netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// IsAllowed applies the blacklist first. With a whitelist configured, anything
// not on it, including an address that does not parse, is rejected.
func (f *IPFilter) IsAllowed(ip string) bool {
	a, err := netip.ParseAddr(ip)
	if err != nil {
		return len(f.allow) == 0
	}
	a = a.Unmap()
	if matchAny(f.deny, a) {
		return false
	}
	return len(f.allow) == 0 || matchAny(f.allow, a)
}

// GetClientIP takes the first X-Forwarded-For hop, then X-Real-IP, then the
// socket peer.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
