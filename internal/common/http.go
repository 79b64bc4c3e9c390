package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the originating client address for rate-limit keying.
// Proxy headers win over the socket address; the leftmost X-Forwarded-For hop
// is the client.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if ip := firstForwardedHop(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	remote := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}
	return remote
}

func firstForwardedHop(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	hop, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(hop)
}
