package version

// Version is overridden with -ldflags "-X github.com/c9s/bandbot/pkg/version.Version=..."
var Version = "v0.1.0-dev"
