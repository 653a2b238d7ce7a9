// Package version reports the client's build version. The engine uses it
// for the default User-Agent.
//
// Version and GitCommit are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/jmcardon/http4s/version.Version=1.0.0"
package version
