// Package buildinfo reports the version of the tlsrest binaries.
//
// Release builds inject the values with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/tlsrest/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/yndnr/tlsrest/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// Development builds fall back to the VCS stamp recorded by the Go toolchain.
package buildinfo
