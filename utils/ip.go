package utils

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP prefers the first hop recorded by a proxy, falling back to the
// socket peer address.
func RealClientIP(r *http.Request) string {
	if xfwd := r.Header.Get("X-Forwarded-For"); xfwd != "" {
		if idx := strings.IndexByte(xfwd, ','); idx >= 0 {
			return strings.TrimSpace(xfwd[:idx])
		}
		return strings.TrimSpace(xfwd)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
