package app

import (
	"fmt"
	"net/http"
)

// startHealthcheckServer exposes GET /health for the lifetime of the
// process, so a supervisor can probe liveness during a long matrix run.
// The server runs on its own goroutine and is never shut down explicitly;
// it dies with the process.
func (a *App) startHealthcheckServer(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		a.logger.Debug("Health probe.", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	addr := fmt.Sprintf(":%d", port)
	go func() {
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		if err := http.ListenAndServe(addr, mux); err != nil {
			a.logger.Error("Health check server failed", "error", err)
		}
	}()
}
