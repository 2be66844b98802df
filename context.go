package goCred

import "context"

// requestMeta is the caller metadata carried on a request context.
type requestMeta struct {
	clientIP  string
	userAgent string
	requestID string
}

type requestMetaKey struct{}

func metaFrom(ctx context.Context) requestMeta {
	if ctx == nil {
		return requestMeta{}
	}
	m, _ := ctx.Value(requestMetaKey{}).(requestMeta)
	return m
}

func withMeta(ctx context.Context, set func(*requestMeta)) context.Context {
	m := metaFrom(ctx)
	set(&m)
	return context.WithValue(ctx, requestMetaKey{}, m)
}

// WithClientIP records the caller address. OTP and reset request throttles
// key on it, and audit events copy it.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return withMeta(ctx, func(m *requestMeta) { m.clientIP = ip })
}

// WithUserAgent records the caller's User-Agent for audit events.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return withMeta(ctx, func(m *requestMeta) { m.userAgent = userAgent })
}

// WithRequestID records a correlation id for audit events.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return withMeta(ctx, func(m *requestMeta) { m.requestID = requestID })
}

func clientIPFromContext(ctx context.Context) string { return metaFrom(ctx).clientIP }
