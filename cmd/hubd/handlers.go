package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"agent-hub/auth"
	"agent-hub/domain"
	apperrors "agent-hub/errors"
	"agent-hub/gateway"
	"agent-hub/hub"
	"agent-hub/observability"
	"agent-hub/repositories"
	"agent-hub/session"
)

type api struct {
	recorder *session.Recorder
	gw       *gateway.Gateway
	index    *repositories.SearchIndex
	reporter *observability.Reporter
	secret   []byte
	tokenTTL time.Duration
	log      *slog.Logger
}

func newAPI(recorder *session.Recorder, gw *gateway.Gateway, index *repositories.SearchIndex, reporter *observability.Reporter, secret []byte, tokenTTL time.Duration, log *slog.Logger) *api {
	return &api{
		recorder: recorder,
		gw:       gw,
		index:    index,
		reporter: reporter,
		secret:   secret,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

func (a *api) register(router *mux.Router) {
	router.HandleFunc("/token", a.handleToken).Methods(http.MethodPost)
	router.HandleFunc("/events", a.handleEvents).Methods(http.MethodGet)
	router.HandleFunc("/stats", a.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/archive/search", a.handleArchiveSearch).Methods(http.MethodGet)

	router.HandleFunc("/workspaces/{workspace}/agents", a.handleRegisterAgent).Methods(http.MethodPost)
	router.HandleFunc("/workspaces/{workspace}/channels", a.handleCreateChannel).Methods(http.MethodPost)
	router.HandleFunc("/workspaces/{workspace}/channels/{channel}", a.handleUpdateChannel).Methods(http.MethodPatch)
	router.HandleFunc("/workspaces/{workspace}/channels/{channel}", a.handleDeleteChannel).Methods(http.MethodDelete)
	router.HandleFunc("/workspaces/{workspace}/channels/{channel}/join", a.handleJoinChannel).Methods(http.MethodPost)
	router.HandleFunc("/workspaces/{workspace}/channels/{channel}/messages", a.handlePostMessage).Methods(http.MethodPost)
	router.HandleFunc("/workspaces/{workspace}/channels/{channel}/messages", a.handleListMessages).Methods(http.MethodGet)
	router.HandleFunc("/workspaces/{workspace}/channels/{channel}/messages/{message}/reactions", a.handleAddReaction).Methods(http.MethodPost)
	router.HandleFunc("/workspaces/{workspace}/search", a.handleSearchMessages).Methods(http.MethodGet)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func (a *api) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, apperrors.ErrAccessDenied):
		status = http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidThread):
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// claims authenticates the request via "Authorization: Bearer" or the
// "token" query parameter, which browser EventSource clients need.
func (a *api) claims(r *http.Request) (*auth.Claims, error) {
	token := r.URL.Query().Get("token")
	if header := r.Header.Get("Authorization"); len(header) > len("Bearer ") && header[:len("Bearer ")] == "Bearer " {
		token = header[len("Bearer "):]
	}
	if token == "" {
		return nil, errors.New("missing bearer token")
	}
	return auth.ValidateToken(a.secret, token)
}

func (a *api) handleToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AgentID     string `json:"agentId"`
		WorkspaceID string `json:"workspaceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AgentID == "" || body.WorkspaceID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "agentId and workspaceId are required"})
		return
	}
	token, err := auth.GenerateToken(a.secret, body.AgentID, body.WorkspaceID, a.tokenTTL)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (a *api) handleEvents(w http.ResponseWriter, r *http.Request) {
	claims, err := a.claims(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	filter := gateway.Filter{
		WorkspaceID: domain.WorkspaceID(claims.WorkspaceID),
		ChannelID:   domain.ChannelID(r.URL.Query().Get("channel")),
	}
	if err := a.gw.AttachSSEClient(w, r, filter); err != nil {
		a.log.Warn("sse attach failed", "error", err)
	}
}

func (a *api) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.reporter.Collect())
}

func (a *api) handleArchiveSearch(w http.ResponseWriter, r *http.Request) {
	claims, err := a.claims(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		return
	}
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	hits, err := a.index.Search(r.Context(), domain.WorkspaceID(claims.WorkspaceID), query, limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"hits": hits})
}

func (a *api) handleRegisterAgent(w http.ResponseWriter, r *http.Request) {
	workspace := domain.WorkspaceID(mux.Vars(r)["workspace"])
	var identity domain.Identity
	if err := json.NewDecoder(r.Body).Decode(&identity); err != nil {
		a.writeError(w, err)
		return
	}
	if err := a.recorder.RegisterAgent(workspace, identity); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, identity)
}

func (a *api) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	workspace := domain.WorkspaceID(mux.Vars(r)["workspace"])
	var body struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Type       string `json:"type"`
		CreatedBy  string `json:"createdBy"`
		Team       string `json:"team"`
		Department string `json:"department"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, err)
		return
	}
	channel, err := a.recorder.CreateChannel(hub.CreateChannelSpec{
		ID:          domain.ChannelID(body.ID),
		WorkspaceID: workspace,
		Name:        body.Name,
		Type:        domain.ChannelType(body.Type),
		CreatedBy:   domain.AgentID(body.CreatedBy),
		Team:        body.Team,
		Department:  body.Department,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, channel)
}

func (a *api) handleUpdateChannel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var body struct {
		RequestedBy string  `json:"requestedBy"`
		Name        *string `json:"name"`
		Team        *string `json:"team"`
		Department  *string `json:"department"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, err)
		return
	}
	channel, err := a.recorder.Hub().UpdateChannel(hub.UpdateChannelSpec{
		WorkspaceID: domain.WorkspaceID(vars["workspace"]),
		ChannelID:   domain.ChannelID(vars["channel"]),
		RequestedBy: domain.AgentID(body.RequestedBy),
		Name:        body.Name,
		Team:        body.Team,
		Department:  body.Department,
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (a *api) handleDeleteChannel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	requestedBy := domain.AgentID(r.URL.Query().Get("requestedBy"))
	err := a.recorder.Hub().DeleteChannel(
		domain.WorkspaceID(vars["workspace"]),
		domain.ChannelID(vars["channel"]),
		requestedBy,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleJoinChannel(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var body struct {
		AgentID string `json:"agentId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, err)
		return
	}
	member, updatedAt, err := a.recorder.JoinChannel(
		domain.WorkspaceID(vars["workspace"]),
		domain.ChannelID(vars["channel"]),
		domain.AgentID(body.AgentID),
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"member": member, "channelUpdatedAt": updatedAt})
}

func (a *api) handlePostMessage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var body struct {
		SenderID     string `json:"senderId"`
		Text         string `json:"text"`
		ThreadRootID string `json:"threadRootId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, err)
		return
	}
	result, err := a.recorder.PostMessage(hub.PostMessageSpec{
		WorkspaceID:  domain.WorkspaceID(vars["workspace"]),
		ChannelID:    domain.ChannelID(vars["channel"]),
		SenderID:     domain.AgentID(body.SenderID),
		Text:         body.Text,
		ThreadRootID: domain.MessageID(body.ThreadRootID),
	})
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":          result.Message,
		"delivery":         map[string]any{"recipients": result.Recipients},
		"channelUpdatedAt": result.ChannelUpdatedAt,
	})
}

func (a *api) handleListMessages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	messages, err := a.recorder.Hub().ListMessages(
		domain.WorkspaceID(vars["workspace"]),
		domain.ChannelID(vars["channel"]),
		hub.ListOptions{ThreadRootID: domain.MessageID(r.URL.Query().Get("threadRootId"))},
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (a *api) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var body struct {
		AgentID string `json:"agentId"`
		Emoji   string `json:"emoji"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		a.writeError(w, err)
		return
	}
	updatedAt, err := a.recorder.AddReaction(
		domain.WorkspaceID(vars["workspace"]),
		domain.ChannelID(vars["channel"]),
		domain.MessageID(vars["message"]),
		domain.AgentID(body.AgentID),
		body.Emoji,
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updatedAt": updatedAt})
}

func (a *api) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	query := r.URL.Query().Get("q")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}
	results, err := a.recorder.Hub().SearchMessages(
		domain.WorkspaceID(vars["workspace"]),
		query,
		hub.SearchOptions{
			ChannelID: domain.ChannelID(r.URL.Query().Get("channel")),
			Limit:     limit,
		},
	)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}
