package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/citylink/citylink/internal/auth"
	"github.com/citylink/citylink/internal/models"
	"github.com/citylink/citylink/internal/store/sqlstore"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// frame is the union of every server-to-client envelope, for decoding
// in tests.
type frame struct {
	Type        string `json:"type"`
	ID          int64  `json:"id"`
	Room        string `json:"room"`
	Content     string `json:"content"`
	AuthorID    int    `json:"authorId"`
	DisplayName string `json:"displayName"`
	Error       string `json:"error"`
}

func newWsServer(t *testing.T) (*httptest.Server, *sqlstore.SQLStore, *auth.Verifier) {
	t.Helper()
	s, err := sqlstore.New("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	verifier := auth.NewVerifier(s, []byte("test-secret"), zerolog.Nop())
	hub := NewHub(s, zerolog.Nop())
	go hub.Run()

	srv := httptest.NewServer(NewHandler(hub, verifier, nil, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv, s, verifier
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func sessionFor(t *testing.T, verifier *auth.Verifier, identity models.Identity) string {
	t.Helper()
	token, err := verifier.SignSession(identity)
	require.NoError(t, err)
	return token
}

func TestWebSocketChat(t *testing.T) {
	srv, s, verifier := newWsServer(t)

	alice := models.Identity{ID: 1, Username: "alice"}
	bob := models.Identity{ID: 2, Username: "bob"}

	bobConn := dial(t, srv, sessionFor(t, verifier, bob))
	require.NoError(t, bobConn.WriteJSON(inboundEvent{Type: eventJoin, Room: "Oslo", DisplayName: "bob"}))
	require.NoError(t, bobConn.WriteJSON(inboundEvent{Type: eventMessage, Room: "Oslo", Content: "ping", AuthorID: 2, DisplayName: "bob"}))

	// Bob's own delivery proves his join and publish completed.
	ping := readFrame(t, bobConn)
	require.Equal(t, eventMessage, ping.Type)
	require.Equal(t, "ping", ping.Content)
	require.Equal(t, 2, ping.AuthorID)

	aliceConn := dial(t, srv, sessionFor(t, verifier, alice))
	require.NoError(t, aliceConn.WriteJSON(inboundEvent{Type: eventJoin, Room: "Oslo", DisplayName: "alice"}))
	require.NoError(t, aliceConn.WriteJSON(inboundEvent{Type: eventMessage, Room: "Oslo", Content: "hello", AuthorID: 1, DisplayName: "alice"}))

	// Both room members receive alice's message; alice never sees the
	// ping published before she joined.
	hello := readFrame(t, aliceConn)
	require.Equal(t, "hello", hello.Content)
	require.Equal(t, 1, hello.AuthorID)
	require.Equal(t, "alice", hello.DisplayName)
	require.Greater(t, hello.ID, ping.ID)

	bobsCopy := readFrame(t, bobConn)
	require.Equal(t, hello.ID, bobsCopy.ID)

	// Both messages are durable and ordered in history.
	history, err := s.RoomMessages("Oslo", 50)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "ping", history[0].Content)
	require.Equal(t, "hello", history[1].Content)
}

func TestWebSocketRejectsIdentityMismatch(t *testing.T) {
	srv, s, verifier := newWsServer(t)
	alice := models.Identity{ID: 1, Username: "alice"}

	conn := dial(t, srv, sessionFor(t, verifier, alice))
	require.NoError(t, conn.WriteJSON(inboundEvent{Type: eventJoin, Room: "Oslo", DisplayName: "alice"}))
	require.NoError(t, conn.WriteJSON(inboundEvent{Type: eventMessage, Room: "Oslo", Content: "hi", AuthorID: 99, DisplayName: "mallory"}))

	f := readFrame(t, conn)
	require.Equal(t, eventError, f.Type)
	require.Equal(t, "identity_mismatch", f.Error)

	history, err := s.RoomMessages("Oslo", 50)
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestWebSocketPublishBeforeJoin(t *testing.T) {
	srv, _, verifier := newWsServer(t)
	alice := models.Identity{ID: 1, Username: "alice"}

	conn := dial(t, srv, sessionFor(t, verifier, alice))
	require.NoError(t, conn.WriteJSON(inboundEvent{Type: eventMessage, Room: "Oslo", Content: "hi", AuthorID: 1}))

	f := readFrame(t, conn)
	require.Equal(t, eventError, f.Type)
	require.Equal(t, "not_subscribed", f.Error)
}

func TestWebSocketRejectsMalformedEvents(t *testing.T) {
	srv, _, verifier := newWsServer(t)
	alice := models.Identity{ID: 1, Username: "alice"}
	conn := dial(t, srv, sessionFor(t, verifier, alice))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	f := readFrame(t, conn)
	require.Equal(t, "validation_error", f.Error)

	require.NoError(t, conn.WriteJSON(inboundEvent{Type: "presence"}))
	f = readFrame(t, conn)
	require.Equal(t, "validation_error", f.Error)

	require.NoError(t, conn.WriteJSON(inboundEvent{Type: eventJoin, Room: "   "}))
	f = readFrame(t, conn)
	require.Equal(t, "validation_error", f.Error)
}

func TestWebSocketRequiresCredential(t *testing.T) {
	srv, _, _ := newWsServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketRejectsBothSchemesAtOnce(t *testing.T) {
	srv, s, verifier := newWsServer(t)

	user := &models.User{Email: "kari@example.com", Username: "kari", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(user))
	require.NoError(t, s.SetAPIToken(user.ID, "live-api-token"))
	token := sessionFor(t, verifier, models.Identity{ID: user.ID, Username: "kari"})

	// Each credential is valid on its own; presenting both is still an
	// admission failure, same as the REST gate.
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	header := http.Header{"x-api-key": []string{"live-api-token"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketAcceptsAPIKey(t *testing.T) {
	srv, s, _ := newWsServer(t)

	user := &models.User{Email: "kari@example.com", Username: "kari", PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(user))
	require.NoError(t, s.SetAPIToken(user.ID, "live-api-token"))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"x-api-key": []string{"live-api-token"}}
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(inboundEvent{Type: eventJoin, Room: "Oslo"}))
	require.NoError(t, conn.WriteJSON(inboundEvent{Type: eventMessage, Room: "Oslo", Content: "via api key", AuthorID: user.ID}))

	f := readFrame(t, conn)
	require.Equal(t, eventMessage, f.Type)
	require.Equal(t, "via api key", f.Content)
	require.Equal(t, "kari", f.DisplayName)
}
