package httpserver

import (
	"net/http"
	"time"
)

// Timeouts are sized for the API's slowest path, a decision commit spanning
// four tables; the write timeout stays above the router's 30s handler
// timeout so the JSON timeout body still reaches the client.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	writeTimeout      = 35 * time.Second
	idleTimeout       = 90 * time.Second
)

// New builds the verification API server.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}
