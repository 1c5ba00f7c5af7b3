// Package client is the transport to an AnyLog/EdgeLake node.
//
// # Overview
//
// The node exposes a REST port that accepts one command per request. The
// command text travels in the "command" header; optional "destination"
// and "topic" headers route it to peers or to a message client, and POST
// bodies carry ingestion payloads. The reply body is returned verbatim:
// this package never interprets it (see package reply for that).
//
// # Error Handling
//
// Network failures and 5xx replies are returned as *TransportError, which
// carries the command text and unwraps to ErrUnavailable or
// common.ErrUnauthorized where applicable. Nothing is retried. An optional
// circuit breaker fails fast while the node keeps failing.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. Every call honours ctx and is
// additionally bounded by the configured request timeout.
package client
