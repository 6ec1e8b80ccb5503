package netutil

import (
	"net/http"
	"net/netip"
	"strings"
	"unicode/utf8"
)

const MaxUserAgentLength = 512

// NormalizeIP accepts a bare IP or an address with a port ("192.0.2.4:1234",
// "[2001:db8::1]:443") and returns the canonical IP without zone.
func NormalizeIP(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	candidates := []string{raw}
	if strings.HasPrefix(raw, "[") && strings.Contains(raw, "]") {
		candidates = append(candidates, raw[1:strings.LastIndex(raw, "]")])
	}
	if idx := strings.LastIndex(raw, ":"); idx > 0 {
		candidates = append(candidates, raw[:idx])
	}
	if ap, err := netip.ParseAddrPort(raw); err == nil && ap.Addr().IsValid() {
		return ap.Addr().WithZone("").String(), true
	}
	for _, c := range candidates {
		if addr, err := netip.ParseAddr(c); err == nil && addr.IsValid() {
			return addr.WithZone("").String(), true
		}
	}
	return raw, false
}

// ClientIP picks the caller address. Forwarding headers are honoured only when
// trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			if ip, ok := NormalizeIP(strings.Split(xff, ",")[0]); ok {
				return ip
			}
		}
		if xr := r.Header.Get("X-Real-IP"); xr != "" {
			if ip, ok := NormalizeIP(xr); ok {
				return ip
			}
		}
	}
	if ip, ok := NormalizeIP(r.RemoteAddr); ok {
		return ip
	}
	return r.RemoteAddr
}

// TruncateUserAgent trims overly long user agents to MaxUserAgentLength runes.
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	n := 0
	for i := range ua {
		if n == MaxUserAgentLength {
			return ua[:i]
		}
		n++
	}
	return ua
}
