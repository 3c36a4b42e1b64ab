// Package version reports the build of the vidprofile binary.
//
// Release builds set Version through -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/vidprofile/version.Version=1.2.0" ./cmd/vidprofile
//
// Commit, dirty state and build time are read from the embedded VCS
// settings when the linker did not set them.
package version
