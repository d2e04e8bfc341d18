// Package httpserver builds the HTTP servers for the gateway and the provider
// adapter service.
package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server for verification traffic. The write timeout leaves
// room for a callback to wait out a slow adapter verify round trip; requests
// carry their own tighter deadlines.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
