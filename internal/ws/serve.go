package ws

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/models"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handler upgrades authenticated HTTP requests to live connections. An
// identity must be resolved before the connection is admitted; the
// socket itself never re-authenticates.
type Handler struct {
	hub      *Hub
	verifier *auth.Verifier
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, verifier *auth.Verifier, allowedOrigins []string, logger zerolog.Logger) *Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[strings.TrimSpace(origin)] = struct{}{}
	}

	return &Handler{
		hub:      hub,
		verifier: verifier,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				_, ok := origins[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authenticate(r)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_credential"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := NewClient(h.hub, conn, identity, h.logger)
	h.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// authenticate accepts the bearer session token, the x-api-key header,
// or a token query parameter (browser WebSocket clients cannot set
// headers on the dial). The schemes are mutually exclusive per request,
// same as the REST endpoints.
func (h *Handler) authenticate(r *http.Request) (models.Identity, error) {
	apiKey := r.Header.Get("x-api-key")

	token := ""
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			token = parts[1]
		}
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}

	switch {
	case apiKey != "" && token != "":
		return models.Identity{}, auth.ErrInvalidCredential
	case apiKey != "":
		return h.verifier.VerifyAPIKey(apiKey)
	default:
		return h.verifier.VerifySession(token)
	}
}
