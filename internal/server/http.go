package server

import (
	"net/http"
	"time"
)

// NewHTTPMux registers the JSON API and health check. webhook may be nil when
// the Telegram bot is disabled.
func NewHTTPMux(webhook http.HandlerFunc, api *API) *http.ServeMux {
	mux := http.NewServeMux()
	if webhook != nil {
		mux.HandleFunc("/telegram/webhook", webhook)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
	if api != nil {
		mux.HandleFunc("/api/analyze", api.handleAnalyze)
		mux.HandleFunc("/api/compare", api.handleCompare)
		mux.HandleFunc("/api/project", api.handleProject)
		mux.HandleFunc("/api/profiles", api.handleProfiles)
	}
	return mux
}

func ListenAndServe(addr string, mux *http.ServeMux) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      90 * time.Second,
	}
	return srv.ListenAndServe()
}
