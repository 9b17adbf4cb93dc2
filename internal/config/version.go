package config

// Version is the wdtree binary version.
// Set at build time via: -ldflags "-X github.com/persistorai/wdtree/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
