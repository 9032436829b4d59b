// Package version exposes build information of pipekit binaries.
//
// Values are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/pipekit/version.Version=1.0.0"
package version
