package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	iauth "github.com/ndlovu-dev/inkwell/internal/auth"
	"github.com/ndlovu-dev/inkwell/internal/database/testutil"
	"github.com/ndlovu-dev/inkwell/internal/realtime"
	"github.com/ndlovu-dev/inkwell/internal/services"
)

func newStreamServer(t *testing.T) (*httptest.Server, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	testutil.MustCreateUser(t, db, "user-a", "anele")

	svc, err := services.NewNoteService(db)
	require.NoError(t, err)

	created, err := svc.Create(t.Context(), "user-a", "Live draft", "")
	require.NoError(t, err)

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "secret", Issuer: "test-suite"})
	require.NoError(t, err)
	authn, err := iauth.NewAuthenticator(db, jwtSvc)
	require.NoError(t, err)

	token, err := jwtSvc.GenerateAccessToken("user-a", "anele")
	require.NoError(t, err)

	handler := NewRealtimeHandler(realtime.NewHub(svc), authn)
	r := gin.New()
	r.GET("/ws", handler.Stream)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return server, token, created.Note.ID
}

func TestStreamRejectsMissingToken(t *testing.T) {
	server, _, _ := newStreamServer(t)

	resp, err := http.Get(server.URL + "/ws")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStreamRejectsInvalidToken(t *testing.T) {
	server, _, _ := newStreamServer(t)

	resp, err := http.Get(server.URL + "/ws?token=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStreamJoinsRoomWithTokenIdentity(t *testing.T) {
	server, token, noteID := newStreamServer(t)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]string{
		"action":  "join_note",
		"note_id": noteID,
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var frame struct {
		Event   string   `json:"event"`
		NoteID  string   `json:"note_id"`
		Members []string `json:"members"`
	}
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, "presence_update", frame.Event)
	require.Equal(t, noteID, frame.NoteID)
	require.Equal(t, []string{"anele"}, frame.Members)
}
