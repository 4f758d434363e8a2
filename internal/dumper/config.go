package dumper

// Config controls the failure dumper.
type Config struct {
	// Enabled turns dumping on. The COUNSELHUB_DEBUG_DUMPER_ENABLED
	// environment variable forces it on regardless of config.
	Enabled bool `conf:"enabled" yaml:"enabled" json:"enabled"`

	// DumpPath is the directory dump files are written to.
	DumpPath string `conf:"dump_path" yaml:"dump_path" json:"dump_path"`
}

// DefaultConfig returns the default dumper configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:  false,
		DumpPath: "dumps",
	}
}
