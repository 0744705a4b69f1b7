package logger

const (
	DefaultLevel  = "info"
	DefaultFormat = "json"
)

// Config selects level, encoding and sinks. The services fill it from
// config.LoggingConfig.
type Config struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`

	// Development turns off sampling and allows Format "console".
	Development bool `yaml:"development"`

	// OutputPaths defaults to stdout.
	OutputPaths []string `yaml:"output_paths"`
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = DefaultLevel
	}
	if c.Format == "" {
		c.Format = DefaultFormat
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}
