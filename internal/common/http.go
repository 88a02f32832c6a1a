package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the caller address without its port. chi's RealIP middleware
// has usually rewritten RemoteAddr already; forwarded headers are consulted
// only when RemoteAddr is empty.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(r.Header.Get("X-Real-IP"))
	}
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
