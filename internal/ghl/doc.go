// Package ghl contains the authenticated GoHighLevel REST client facade
// and the per-call client resolver.
//
// The facade never fetches tokens itself: the resolver decides whether a
// call uses the shared service-managed credential or a caller-supplied
// override, and binds the facade to that token for the duration of the
// call. Token acquisition and token use stay decoupled and independently
// testable.
package ghl
