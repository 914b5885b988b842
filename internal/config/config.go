// Package config provides configuration loading for dwarfcat.
//
// Values are layered: baked defaults, then the optional config file,
// then DWARFCAT_* environment variables, then CLI flags (applied by the
// CLI layer, highest precedence).
package config

// Config holds tool defaults.
type Config struct {
	// Filter restricts output to entities whose normalized declaration
	// file begins with this prefix. Empty matches everything.
	Filter string `yaml:"filter" env:"DWARFCAT_FILTER"`

	// Output is the path of the JSON document to write.
	Output string `yaml:"output" env:"DWARFCAT_OUTPUT"`

	// Demangle stores demangled forms next to captured linkage names.
	Demangle bool `yaml:"demangle" env:"DWARFCAT_DEMANGLE"`

	// Logging configures diagnostic output.
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	// Level is one of trace, debug, info, warn, error.
	Level string `yaml:"level" env:"DWARFCAT_LOG_LEVEL"`
}

// Default returns the baked-in defaults.
func Default() *Config {
	return &Config{
		Filter:   "",
		Output:   "out.json",
		Demangle: false,
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
