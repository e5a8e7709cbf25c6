package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"chatdb/pkg/auth"
	"chatdb/pkg/entities"
	"chatdb/pkg/logger"
	"chatdb/pkg/schema"
	"chatdb/pkg/utils"
)

// AuthHandlers exposes the authentication entry points over HTTP.
type AuthHandlers struct {
	auth     *auth.Authenticator
	sessions *auth.SessionIssuer
	limiter  *auth.Limiter
}

// RegisterAuth registers the authentication routes on the provided router.
func RegisterAuth(r *mux.Router, a *auth.Authenticator, s *auth.SessionIssuer, l *auth.Limiter) {
	h := &AuthHandlers{auth: a, sessions: s, limiter: l}
	r.HandleFunc("/auth/login", h.login).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/guest", h.guest).Methods(http.MethodPost)
	r.HandleFunc("/auth/session", h.session).Methods(http.MethodGet)
}

type tokenResponse struct {
	Token string           `json:"token"`
	User  auth.SessionUser `json:"user"`
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientKey(r)) {
		utils.JSONError(w, http.StatusTooManyRequests, "too many attempts")
		return
	}
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	id, err := h.auth.AuthenticateWithPassword(r.Context(), creds)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	h.respondWithToken(w, id)
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientKey(r)) {
		utils.JSONError(w, http.StatusTooManyRequests, "too many attempts")
		return
	}
	creds, ok := decodeCredentials(w, r)
	if !ok {
		return
	}
	id, err := h.auth.Register(r.Context(), creds)
	if err != nil {
		var ve *schema.ValidationError
		switch {
		case errors.Is(err, entities.ErrConflict):
			utils.JSONError(w, http.StatusConflict, "email already registered")
		case errors.As(err, &ve):
			utils.JSONError(w, http.StatusBadRequest, ve.Error())
		case errors.Is(err, auth.ErrMalformedRequest):
			utils.JSONError(w, http.StatusBadRequest, "malformed credentials")
		default:
			utils.JSONError(w, http.StatusServiceUnavailable, "registration unavailable")
		}
		return
	}
	h.respondWithToken(w, id)
}

func (h *AuthHandlers) guest(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow(clientKey(r)) {
		utils.JSONError(w, http.StatusTooManyRequests, "too many attempts")
		return
	}
	id, err := h.auth.AuthenticateAsGuest(r.Context())
	if err != nil {
		writeAuthError(w, err)
		return
	}
	h.respondWithToken(w, id)
}

// session returns the session encoded in the presented bearer token. The
// token is self-contained; no lookup happens here.
func (h *AuthHandlers) session(w http.ResponseWriter, r *http.Request) {
	hdr := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(hdr, "Bearer ") {
		utils.JSONError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	sess, err := h.sessions.ToSession(strings.TrimPrefix(hdr, "Bearer "))
	if err != nil {
		utils.JSONError(w, http.StatusUnauthorized, "invalid session token")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, sess)
}

func (h *AuthHandlers) respondWithToken(w http.ResponseWriter, id auth.Identity) {
	token, err := h.sessions.ToToken(id)
	if err != nil {
		logger.Error("token_sign_failed", "user", id.ID, "error", err)
		utils.JSONError(w, http.StatusInternalServerError, "failed to issue session")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, tokenResponse{
		Token: token,
		User:  auth.SessionUser{ID: auth.FormatSubject(id.ID), Type: id.Type},
	})
}

// decodeCredentials enforces the typed credential shape at the boundary.
// Unknown fields and junk bodies are MalformedRequest, never
// InvalidCredentials.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (auth.Credentials, bool) {
	var creds auth.Credentials
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&creds); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "malformed credentials")
		return auth.Credentials{}, false
	}
	return creds, true
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrMalformedRequest):
		utils.JSONError(w, http.StatusBadRequest, "malformed credentials")
	case errors.Is(err, auth.ErrInvalidCredentials):
		utils.JSONError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrStoreUnavailable):
		utils.JSONError(w, http.StatusServiceUnavailable, "authentication unavailable")
	default:
		utils.JSONError(w, http.StatusInternalServerError, "authentication failed")
	}
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
