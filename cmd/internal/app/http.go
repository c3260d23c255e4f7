package app

import (
	"net/http"
	"time"
)

// Handler builds the full middleware chain over the route table.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	a.registerHTTP(mux)

	return Chain(mux,
		func(h http.Handler) http.Handler { return WithRequestLogging(h, a.log, a.metrics) },
		func(h http.Handler) http.Handler { return WithRecover(h, a.log) },
		WithSecurityHeaders,
		func(h http.Handler) http.Handler { return WithCORS(h, a.cfg, a.log) },
	)
}

// protect is the chain every session-bound route runs behind: the guard
// rejects first, then renewal wraps the handler's response.
func (a *App) protect(h http.Handler) http.Handler {
	return Chain(h, a.guard.Require, a.guard.Renew)
}

func (a *App) registerHTTP(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.ReadinessRequireDB && !a.dbEnabled {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if a.dbEnabled && a.dbPool != nil {
			if err := PingDB(r.Context(), a.dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				a.log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("/metrics", a.metrics.Handler())

	a.auth.Register(mux)
	a.moderation.Register(mux, a.protect)
	mux.Handle("/summary", a.protect(a.summary))
	mux.Handle("/events", a.protect(a.feed))
}
