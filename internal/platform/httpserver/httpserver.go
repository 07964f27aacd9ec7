package httpserver

import (
	"net/http"
	"time"
)

// New builds the API server. Timeouts bound slow clients; verifier calls to
// vendors are expected to finish well inside WriteTimeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
