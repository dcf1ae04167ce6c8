package cli

// Version is the build version string, compared against GitHub releases
// by CheckForUpdates. Overridden at build time via
// -ldflags "-X github.com/Fepozopo/clrq/pkg/cli.Version=1.2.3".
var Version = "0.1.0"
