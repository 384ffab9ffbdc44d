package config

// Version is the conceptmap binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/conceptmap/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
