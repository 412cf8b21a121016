// internal/requestinfo/requestinfo.go
//
// HTTP middleware that logs who is calling the webhook.
//
/*
Context
--------
Every request is annotated with the client IP (left-most public address
from X-Forwarded-For or X-Real-IP, falling back to RemoteAddr) and the
parsed User-Agent.  The callers here are CMS servers rather than
browsers, so the UA mostly distinguishes real upstream instances from
curl-wielding humans and probes — useful when chasing down a
misconfigured webhook.

An Info value is stored in the request context for handlers that want
the same attributes without reparsing.

Notes
-----
  • All look-ups are read-only; the middleware is safe under heavy
    concurrency.
  • Oxford commas, two spaces after periods.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	surfer "github.com/avct/uasurfer"
	"go.uber.org/zap"
)

// Info carries the per-request attributes the middleware extracts.
type Info struct {
	IP        net.IP
	Browser   string
	OS        string
	IsBot     bool
	Timestamp time.Time
}

type ctxKey struct{}

// FromContext returns the Info attached by Enrich, or nil.
func FromContext(ctx context.Context) *Info {
	info, _ := ctx.Value(ctxKey{}).(*Info)
	return info
}

/*──────────────────────────── middleware ───────────────────────────────────*/

// Enrich wraps an http.Handler, attaches *Info, and logs a DEBUG span
// per request.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := surfer.Parse(r.UserAgent())

		info := &Info{
			IP:        clientIP(r),
			Browser:   ua.Browser.Name.String(),
			OS:        ua.OS.Name.String(),
			IsBot:     ua.IsBot(),
			Timestamp: time.Now().UTC(),
		}

		zap.S().Debugw("request",
			"method", r.Method,
			"path", r.URL.Path,
			"ip", info.IP,
			"browser", info.Browser,
			"os", info.OS,
			"bot", info.IsBot,
		)

		ctx := context.WithValue(r.Context(), ctxKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

/*──────────────────────────── client IP helper ─────────────────────────────*/

// clientIP extracts the left-most address from X-Forwarded-For or
// X-Real-IP, falling back to r.RemoteAddr ("ip:port").
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range strings.Split(xff, ",") {
			if ip := net.ParseIP(strings.TrimSpace(part)); ip != nil {
				return ip
			}
		}
	}
	if xrip := r.Header.Get("X-Real-Ip"); xrip != "" {
		if ip := net.ParseIP(strings.TrimSpace(xrip)); ip != nil {
			return ip
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return net.ParseIP(host)
	}
	return nil
}
