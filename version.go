package empassist

// Version is the library version, overridable at build time with
// -ldflags "-X github.com/empassist/empassist.Version=...".
var Version = "0.1.0"
