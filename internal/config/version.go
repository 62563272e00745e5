package config

// Version is the server version reported by the health endpoint.
// Overridden at build time via -ldflags "-X ...config.Version=v1.2.3".
var Version = "dev"
