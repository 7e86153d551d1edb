// Package middleware holds the gin middleware shared by every route:
// request ids, request logging, CORS and per-client rate limiting.
package middleware
