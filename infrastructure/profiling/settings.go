// Package profiling starts optional pprof and Pyroscope profilers. Both are
// off unless switched on through the environment.
package profiling

import (
	infraconfig "github.com/jonesrussell/north-crm/infrastructure/config"
)

// Settings is read from the environment on every Start call.
type Settings struct {
	Pprof     bool   `env:"ENABLE_PROFILING"`
	PprofPort string `env:"PPROF_PORT"`

	Continuous  bool   `env:"ENABLE_CONTINUOUS_PROFILING"`
	ServerURL   string `env:"PYROSCOPE_SERVER_URL"`
	Environment string `env:"PYROSCOPE_ENVIRONMENT"`
}

// LoadSettings applies the environment over the defaults. Malformed values
// are ignored; profiling is never worth failing startup for.
func LoadSettings() Settings {
	s := Settings{
		PprofPort:   "6060",
		ServerURL:   "http://pyroscope:4040",
		Environment: "development",
	}
	_ = infraconfig.ApplyEnvOverrides(&s)
	return s
}
