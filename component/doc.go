// Package component defines the lifecycle contract shared by long-lived
// resources such as the HTTP client.
//
// A Component is started once, reports health while running and is stopped
// once. Stop must release everything Start acquired even when part of the
// teardown fails.
package component
