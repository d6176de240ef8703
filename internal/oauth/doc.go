// Package oauth implements the GoHighLevel OAuth2 credential lifecycle:
// exchanging an authorization code for a token, persisting it, refreshing
// it on demand, and serving the interactive authorization web flow.
//
// The package is organized around three pieces:
//
//   - TokenStore: durable, atomic storage of the single token record.
//   - Service: the only component that talks to the provider's token
//     endpoint. It owns the store and exposes GetValidAccessToken, which
//     lazily refreshes an expiring credential. Concurrent refreshes are
//     collapsed into one in-flight exchange via singleflight.
//   - Handler / CallbackServer: the interactive authorization-code
//     acquisition surfaces (hosted web flow and local CLI login).
//
// Refresh is never driven by a timer. A credential that is never used is
// never refreshed.
package oauth
