package profiling

import (
	"errors"
	"net/http"
	"net/http/pprof"
	"time"

	infralogger "github.com/jonesrussell/north-crm/infrastructure/logger"
)

// StartPprofServer serves /debug/pprof on the loopback interface when
// ENABLE_PROFILING is set. It returns nil when disabled.
func StartPprofServer(log infralogger.Logger) *http.Server {
	settings := LoadSettings()
	if !settings.Pprof {
		return nil
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	srv := &http.Server{
		Addr:              "localhost:" + settings.PprofPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("pprof listening", infralogger.String("addr", srv.Addr))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("pprof server stopped", infralogger.Error(err))
		}
	}()

	return srv
}
