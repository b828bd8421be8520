package runtime

var (
	// set during compilation via ldflags
	Version   = "dev"
	GitCommit = "unknown"
	Timestamp = "unknown"
)
