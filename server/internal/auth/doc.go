// Package auth provides authentication middleware for the alertd HTTP server.
//
// APIKey(mode, header, key, open...) returns middleware that validates the API
// key from the named request header.
//
// When mode != "apikey" or key == "", all requests pass through (useful for
// local development with auth disabled). When the key is incorrect or absent,
// the middleware answers 401 immediately.
package auth
