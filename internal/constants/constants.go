// Package constants holds application identity values shared between
// the CLI and the network clients.
package constants

// AppName is the canonical binary name.
const AppName = "videman"

// Version is the release version, bumped on tagging.
const Version = "0.3.0"
