// Package server assembles the backend: event bus, terminal sessions,
// process supervisor, watch manager, service registry and the gin router
// that exposes them.
//
// Middleware runs in this order: recovery, request id, access log, metrics,
// CORS and, when enabled, per-client rate limiting.
package server
