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

// ChatHandlers exposes chats and their owned messages, votes and streams.
type ChatHandlers struct {
	svc *entities.Service
}

// RegisterChats registers chat routes. The router must already enforce a
// verified session.
func RegisterChats(r *mux.Router, svc *entities.Service) {
	h := &ChatHandlers{svc: svc}
	r.HandleFunc("/chats", h.createChat).Methods(http.MethodPost)
	r.HandleFunc("/chats", h.listChats).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}", h.getChat).Methods(http.MethodGet)
	r.HandleFunc("/chats/{id}/visibility", h.updateVisibility).Methods(http.MethodPut)

	r.HandleFunc("/chats/{id}/messages", h.appendMessage).Methods(http.MethodPost)
	r.HandleFunc("/chats/{id}/messages", h.listMessages).Methods(http.MethodGet)

	r.HandleFunc("/chats/{id}/messages/{msg}/vote", h.setVote).Methods(http.MethodPut)
	r.HandleFunc("/chats/{id}/votes", h.listVotes).Methods(http.MethodGet)

	r.HandleFunc("/chats/{id}/streams", h.createStream).Methods(http.MethodPost)
	r.HandleFunc("/chats/{id}/streams", h.listStreams).Methods(http.MethodGet)
}

func (h *ChatHandlers) createChat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title      string            `json:"title"`
		Visibility models.Visibility `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c, err := h.svc.CreateChat(r.Context(), models.Chat{
		Title:      body.Title,
		UserID:     auth.UserIDFromContext(r.Context()),
		Visibility: body.Visibility,
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, c)
}

func (h *ChatHandlers) listChats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	var (
		chats []models.Chat
		err   error
	)
	if vis := r.URL.Query().Get("visibility"); vis != "" {
		chats, err = h.svc.ListUserChatsByVisibility(r.Context(), userID, models.Visibility(vis))
	} else {
		chats, err = h.svc.ListUserChats(r.Context(), userID)
	}
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"chats": chats})
}

func (h *ChatHandlers) getChat(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadChat(w, r, true)
	if !ok {
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, c)
}

func (h *ChatHandlers) updateVisibility(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadChat(w, r, false)
	if !ok {
		return
	}
	var body struct {
		Visibility models.Visibility `json:"visibility"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	updated, err := h.svc.UpdateChatVisibility(r.Context(), c.ID, body.Visibility)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, updated)
}

func (h *ChatHandlers) appendMessage(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadChat(w, r, false)
	if !ok {
		return
	}
	var body struct {
		Role        models.MessageRole         `json:"role"`
		Parts       []models.MessagePart       `json:"parts"`
		Attachments []models.MessageAttachment `json:"attachments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	m, err := h.svc.AppendMessage(r.Context(), c.ID, models.Message{
		Role:        body.Role,
		Parts:       body.Parts,
		Attachments: body.Attachments,
	})
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, m)
}

func (h *ChatHandlers) listMessages(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadChat(w, r, true)
	if !ok {
		return
	}
	var limit []int
	if ls := r.URL.Query().Get("limit"); ls != "" {
		if n, err := strconv.Atoi(ls); err == nil && n > 0 {
			limit = append(limit, n)
		}
	}
	msgs, err := h.svc.ListMessages(r.Context(), c.ID, limit...)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (h *ChatHandlers) setVote(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadChat(w, r, true)
	if !ok {
		return
	}
	msgID, err := strconv.ParseUint(mux.Vars(r)["msg"], 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid message id")
		return
	}
	var body struct {
		IsUpvoted bool `json:"is_upvoted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	v, err := h.svc.SetVote(r.Context(), models.Vote{ChatID: c.ID, MessageID: msgID, IsUpvoted: body.IsUpvoted})
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "message not found")
			return
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, v)
}

func (h *ChatHandlers) listVotes(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadChat(w, r, true)
	if !ok {
		return
	}
	votes, err := h.svc.ListVotes(r.Context(), c.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"votes": votes})
}

func (h *ChatHandlers) createStream(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadChat(w, r, false)
	if !ok {
		return
	}
	st, err := h.svc.CreateStream(r.Context(), c.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusCreated, st)
}

func (h *ChatHandlers) listStreams(w http.ResponseWriter, r *http.Request) {
	c, ok := h.loadChat(w, r, true)
	if !ok {
		return
	}
	streams, err := h.svc.ListChatStreams(r.Context(), c.ID)
	if err != nil {
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = utils.JSONWrite(w, http.StatusOK, map[string]any{"streams": streams})
}

// loadChat resolves the {id} path variable and enforces ownership. Public
// chats are readable by any session when allowPublic is set; everything
// else requires the owner. Missing and forbidden chats are both reported
// as 404 so chat ids cannot be probed.
func (h *ChatHandlers) loadChat(w http.ResponseWriter, r *http.Request, allowPublic bool) (models.Chat, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid chat id")
		return models.Chat{}, false
	}
	c, err := h.svc.GetChat(r.Context(), id)
	if err != nil {
		if errors.Is(err, entities.ErrNotFound) {
			utils.JSONError(w, http.StatusNotFound, "chat not found")
			return models.Chat{}, false
		}
		utils.JSONError(w, http.StatusInternalServerError, err.Error())
		return models.Chat{}, false
	}
	userID := auth.UserIDFromContext(r.Context())
	if c.UserID != userID && !(allowPublic && c.Visibility == models.VisibilityPublic) {
		utils.JSONError(w, http.StatusNotFound, "chat not found")
		return models.Chat{}, false
	}
	return c, true
}
