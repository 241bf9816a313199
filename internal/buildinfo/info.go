package buildinfo

// Set with -ldflags "-X github.com/tellerline/teller/internal/buildinfo.Version=..." at release time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
