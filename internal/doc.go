// Package internal holds helpers private to goCred: one-time code and token
// generation, token digests and randomized delays.
//
// # Sub-packages
//
//   - audit: async event dispatch (Dispatcher and Sink implementations)
//   - flows: orchestration of every Engine operation over account.Store
//   - lockout: failed-attempt counting and temporary locks
//   - logging: zap logger construction
//   - metrics: lock-free counters and latency histograms
//   - otp: delivered one-time codes and authenticator enrollment
//   - rate: Redis-backed request throttles
//   - reset: password reset tickets
//   - security: configuration security report
package internal
