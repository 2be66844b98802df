package middleware

import (
	"net"
	"net/http"
	"strings"

	goCred "github.com/MrEthical07/goCred"
	"github.com/segmentio/ksuid"
)

// RequestIDHeader is read for an inbound request id and echoed on the
// response.
const RequestIDHeader = "X-Request-ID"

// RequestMetadata copies the client IP, user agent and request id into the
// request context so engine calls can throttle by IP and stamp audit
// events. A missing request id is generated. X-Forwarded-For is honored
// only when trustProxy is set.
func RequestMetadata(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
			if requestID == "" {
				requestID = ksuid.New().String()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := goCred.WithClientIP(r.Context(), clientIP(r, trustProxy))
			ctx = goCred.WithUserAgent(ctx, r.UserAgent())
			ctx = goCred.WithRequestID(ctx, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
