package version

// Version is the protoscan release version, overridable at link time with
// -ldflags "-X protoscan/internal/shared/version.Version=...".
var Version = "0.1.0"
