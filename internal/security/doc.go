// Package security summarizes an engine configuration into a report of
// active protections and weak settings.
package security
