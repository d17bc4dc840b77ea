package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	apperrors "github.com/waforge/gateway-go/internal/errors"
	"github.com/waforge/gateway-go/internal/httputil"
	"github.com/waforge/gateway-go/internal/session"
)

// GatewayHandler is the thin HTTP surface over the lifecycle manager.
type GatewayHandler struct {
	manager *session.Manager
}

func NewGatewayHandler(manager *session.Manager) *GatewayHandler {
	return &GatewayHandler{
		manager: manager,
	}
}

func (h *GatewayHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/status", h.GetStatus)
	r.Get("/qr", h.GetPairingChallenge)
	r.Post("/send", h.Send)
	r.Get("/messages", h.GetMessages)
	r.Get("/media/{id}", h.GetMedia)
	r.Post("/logout", h.Logout)
	r.Post("/reconnect", h.Reconnect)

	return r
}

// GET /status
func (h *GatewayHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.manager.GetStatus())
}

// GET /qr
func (h *GatewayHandler) GetPairingChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, ok := h.manager.GetPairingChallenge()
	if !ok {
		httputil.WriteError(w, apperrors.NotFound("Pairing challenge"))
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"qr": challenge})
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// POST /send
func (h *GatewayHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, apperrors.ValidationError("Invalid JSON body"))
		return
	}
	if req.To == "" {
		httputil.WriteError(w, apperrors.MissingRequired("to"))
		return
	}
	if req.Message == "" {
		httputil.WriteError(w, apperrors.MissingRequired("message"))
		return
	}

	messageID, err := h.manager.Send(r.Context(), req.To, req.Message)
	if err != nil {
		log.Warn().Err(err).Str("to", req.To).Msg("send failed")
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"messageId": messageID})
}

// GET /messages?limit=N
func (h *GatewayHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httputil.WriteError(w, apperrors.ValidationError("limit must be an integer"))
			return
		}
		limit = n
	}

	messages := h.manager.RecentMessages(limit)
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}

// GET /media/{id}
func (h *GatewayHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rc, record, err := h.manager.ResolveMedia(id)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", record.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(record.SizeBytes, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		log.Warn().Err(err).Str("mediaId", id).Msg("media stream interrupted")
	}
}

// POST /logout
func (h *GatewayHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.manager.Logout()
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "logout requested"})
}

// POST /reconnect
func (h *GatewayHandler) Reconnect(w http.ResponseWriter, r *http.Request) {
	h.manager.ForceReconnect()
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "reconnect requested"})
}
