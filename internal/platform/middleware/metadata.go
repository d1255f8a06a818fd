package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"verilist/pkg/requestcontext"
)

// ClientMetadata records the caller's IP and a normalized user agent in the
// request context. Audit entries persist both alongside each decision.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), clientIP(r), normalizeUserAgent(r.UserAgent()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		// First hop is the original client.
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// normalizeUserAgent reduces a raw User-Agent header to "browser/version os"
// so audit rows stay compact and comparable.
func normalizeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	parts := []string{name}
	if version != "" {
		parts[0] = name + "/" + version
	}
	if os := ua.OS(); os != "" {
		parts = append(parts, os)
	}
	return strings.Join(parts, " ")
}
