package profiling

import (
	"fmt"
	"os"
	"runtime"

	"github.com/grafana/pyroscope-go"
	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
)

// ApplicationPrefix namespaces every service in the Pyroscope UI.
const ApplicationPrefix = "north-crm."

// Profiler wraps a running Pyroscope session. A nil *Profiler is valid and
// Stop on it is a no-op.
type Profiler struct {
	session *pyroscope.Profiler
}

var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileAllocObjects,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseObjects,
	pyroscope.ProfileInuseSpace,
}

// StartPyroscope pushes continuous profiles for service when
// ENABLE_CONTINUOUS_PROFILING is set, and returns nil, nil otherwise.
func StartPyroscope(service, version string, log infralogger.Logger) (*Profiler, error) {
	settings := LoadSettings()
	if !settings.Continuous {
		return nil, nil //nolint:nilnil // disabled
	}

	cfg := pyroscopeConfig(service, version, settings)
	session, err := pyroscope.Start(cfg)
	if err != nil {
		return nil, fmt.Errorf("start pyroscope for %s: %w", service, err)
	}

	log.Info("Continuous profiling enabled",
		infralogger.String("application", cfg.ApplicationName),
		infralogger.String("server", cfg.ServerAddress),
	)
	return &Profiler{session: session}, nil
}

func pyroscopeConfig(service, version string, settings Settings) pyroscope.Config {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}

	return pyroscope.Config{
		ApplicationName: ApplicationPrefix + service,
		ServerAddress:   settings.ServerURL,
		ProfileTypes:    profileTypes,
		Tags: map[string]string{
			"environment": settings.Environment,
			"version":     version,
			"hostname":    host,
			"go_version":  runtime.Version(),
		},
	}
}

// Stop flushes and ends the session.
func (p *Profiler) Stop() error {
	if p == nil || p.session == nil {
		return nil
	}
	return p.session.Stop()
}
