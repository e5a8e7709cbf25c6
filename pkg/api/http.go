// Package api wires the HTTP surface. Handlers are external collaborators
// of the core: they only decode requests, invoke the authenticator/session
// issuer/entity operations, and encode results.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chatdb/pkg/api/handlers"
	"chatdb/pkg/auth"
	"chatdb/pkg/entities"
	"chatdb/pkg/utils"
)

// Deps carries the explicitly constructed collaborators. Nothing here is a
// package-level singleton.
type Deps struct {
	Entities *entities.Service
	Auth     *auth.Authenticator
	Sessions *auth.SessionIssuer
	Limiter  *auth.Limiter
}

// NewRouter builds the full route table. /healthz and /metrics are open;
// every /v1 route except the auth entry points requires a verified session.
func NewRouter(d Deps) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if !d.Entities.Store().Ready() {
			utils.JSONError(w, http.StatusServiceUnavailable, "store not ready")
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterAuth(v1, d.Auth, d.Sessions, d.Limiter)

	protected := v1.NewRoute().Subrouter()
	protected.Use(auth.RequireSession(d.Sessions))
	handlers.RegisterChats(protected, d.Entities)
	handlers.RegisterDocuments(protected, d.Entities)

	return r
}
