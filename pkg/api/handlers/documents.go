package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"chatdb/pkg/auth"
	"chatdb/pkg/entities"
	"chatdb/pkg/models"
	"chatdb/pkg/utils"
)

// DocumentHandlers exposes documents, their version chains and the
// suggestions bound to individual versions.
type DocumentHandlers struct {
	svc *entities.Service
}

// RegisterDocuments registers document and suggestion routes. The router
// must already enforce a verified session.
func RegisterDocuments(r *mux.Router, svc *entities.Service) {
	h := &DocumentHandlers{svc: svc}
	r.HandleFunc("/documents", h.saveDocument).Methods(http.MethodPost)
	r.HandleFunc("/documents", h.listDocuments).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}", h.getDocument).Methods(http.MethodGet)
	r.HandleFunc("/documents/{id}/versions", h.listVersions).Methods(http.MethodGet)

	r.HandleFunc("/documents/{id}/suggestions", h.createSuggestion).Methods(http.MethodPost)
	r.HandleFunc("/documents/{id}/suggestions", h.listSuggestions).Methods(http.MethodGet)
	r.HandleFunc("/suggestions/{id}/resolve", h.resolveSuggestion).Methods(http.MethodPost)
}

// saveDocument creates a document or, when an id is supplied, appends a
// new version to its chain.
func (h *DocumentHandlers) saveDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID      uint64              `json:"id"`
		Title   string              `json:"title"`
		Content string              `json:"content"`
		Kind    models.DocumentKind `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	userID := auth.UserIDFromContext(r.Context())
	if body.ID != 0 {
		// appending a version: the chain must exist and belong to the caller
		cur, err := h.svc.GetDocument(r.Context(), body.ID)
		if err != nil {
			if errors.Is(err, entities.ErrNotFound) {
				utils.JSONError(w, http.StatusNotFound, "document not found")
				return
			}
			utils.JSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if cur.UserID != userID {
			utils.JSONError(w, http.StatusNotFound, "document not found")
			return
		}
	}
	d, err := h.svc.SaveDocument(r.Context(), models.Document{
		ID:      body.ID,
		UserID:  userID,
		Title:   body.Title,
		Content: body.Content,
		Kind:    body.Kind,
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, d)
}

func (h *DocumentHandlers) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListUserDocuments(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"documents": docs})
}

// getDocument returns the latest version, or an exact one when ?version=
// is supplied.
func (h *DocumentHandlers) getDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var (
		d   models.Document
		err error
	)
	if vs := r.URL.Query().Get("version"); vs != "" {
		var ver int64
		ver, err = strconv.ParseInt(vs, 10, 64)
		if err != nil {
			utils.JSONError(w, http.StatusBadRequest, "invalid version")
			return
		}
		d, err = h.svc.GetDocumentVersion(r.Context(), id, ver)
	} else {
		d, err = h.svc.GetDocument(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "document not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if d.UserID != auth.UserIDFromContext(r.Context()) {
		utils.JSONError(w, http.StatusNotFound, "document not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, d)
}

func (h *DocumentHandlers) listVersions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	vers, err := h.svc.ListDocumentVersions(r.Context(), id)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(vers) == 0 || vers[0].UserID != auth.UserIDFromContext(r.Context()) {
		utils.JSONError(w, http.StatusNotFound, "document not found")
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"versions": vers})
}

func (h *DocumentHandlers) createSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		DocumentVersion int64  `json:"document_version"`
		OriginalText    string `json:"original_text"`
		SuggestedText   string `json:"suggested_text"`
		Description     string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sg, err := h.svc.CreateSuggestion(r.Context(), models.Suggestion{
		DocumentID:      id,
		DocumentVersion: body.DocumentVersion,
		OriginalText:    body.OriginalText,
		SuggestedText:   body.SuggestedText,
		Description:     body.Description,
		UserID:          auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "document version not found")
			return
		}
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, sg)
}

func (h *DocumentHandlers) listSuggestions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ver, err := strconv.ParseInt(r.URL.Query().Get("version"), 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "version query parameter required")
		return
	}
	suggs, err := h.svc.ListSuggestions(r.Context(), id, ver)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"suggestions": suggs})
}

func (h *DocumentHandlers) resolveSuggestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status models.ResolutionStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	sg, err := h.svc.ResolveSuggestion(r.Context(), auth.UserIDFromContext(r.Context()), id, body.Status)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "suggestion not found")
			return
		}
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, sg)
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
