// Package audit implements async event dispatching for credential lifecycle
// operations.
//
// # Components
//
//   - [Sink]: interface for event consumers (channel, JSON writer, rotating
//     file, zap logger, fan-out, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//     Events without an ID receive a KSUID on emit.
//   - [Event]: structured audit record with timestamp, type, account, client
//     metadata and an error code.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which events
// to emit; that belongs to the Engine and flow functions.
//
// # What this package must NOT do
//
//   - Filter or suppress events based on business logic.
//   - Import goCred or any sibling internal package.
//   - Record secrets (passwords, codes, tokens) in events.
package audit
