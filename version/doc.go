// Package version holds the client's build version and the User-Agent
// string derived from it.
//
// Version and git commit are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/payclient/version.Version=1.0.0"
package version
