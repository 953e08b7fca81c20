package server

import "net/http"

// registerRoutes wires all REST API endpoints.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// Service endpoints
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/status", s.handleStatus)

	// Market data endpoints
	mux.HandleFunc("/api/symbols", s.handleSymbols)
	mux.HandleFunc("/api/quote/", s.handleQuote)
	mux.HandleFunc("/api/screen/top", s.handleScreenTop)

	// Collection control
	mux.HandleFunc("/api/collect", s.handleCollect)
}
