package httpapi

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewFeedProxy forwards feed requests to the external social-feed backend.
// The backend owns its own cookie session and OAuth lifecycle; the tracker
// just relays. Upstream failures are 502 and never touch progression state.
func NewFeedProxy(target *url.URL, logger *slog.Logger) http.Handler {
	if target == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "feed backend not configured", http.StatusBadGateway)
		})
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	origDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		origDirector(req)
		// Ensure the upstream sees the right Host and preserve original path.
		req.Host = target.Host
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		if logger != nil && err != nil {
			logger.Error("feed proxy error", slog.Any("error", err), slog.String("path", r.URL.Path))
		}
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}

	return proxy
}
