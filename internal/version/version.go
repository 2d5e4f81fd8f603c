// Package version provides build-time version information.
//
// Variables are set at build time via ldflags:
//
//	go build -ldflags "-X github.com/rickgao/connsync/internal/version.Version=1.0.0 \
//	                   -X github.com/rickgao/connsync/internal/version.Commit=$(git rev-parse --short HEAD)" \
//	    ./cmd/connsync
package version

// Product is the client name sent in the channel handshake.
const Product = "connsync"

// Build-time variables (set via ldflags)
var (
	Version = "dev"
	Commit  = "unknown"
)

// String returns a formatted version string.
func String() string {
	return Version + " (" + Commit + ")"
}

// UserAgent returns the User-Agent header value for outgoing handshakes.
func UserAgent() string {
	return Product + "/" + Version
}
