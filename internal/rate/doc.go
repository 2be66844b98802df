// Package rate keeps fixed-window request budgets in Redis for one-time-code
// and reset-link issuance. Each budget counts per subject under gco: or gcr:
// and, optionally, per client address under gcoi: or gcri: with ten times the
// subject allowance. Failed-login lockout is not handled here; it lives on
// the account record.
package rate
