package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ndlovu-dev/inkwell/internal/app"
	iauth "github.com/ndlovu-dev/inkwell/internal/auth"
	"github.com/ndlovu-dev/inkwell/internal/database/testutil"
	"github.com/ndlovu-dev/inkwell/internal/realtime"
	"github.com/ndlovu-dev/inkwell/internal/services"
	"github.com/ndlovu-dev/inkwell/pkg/response"
)

func newTestRouter(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	testutil.MustCreateUser(t, db, "user-a", "anele")

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "secret", Issuer: "test-suite"})
	require.NoError(t, err)
	authn, err := iauth.NewAuthenticator(db, jwtSvc)
	require.NoError(t, err)

	notes, err := services.NewNoteService(db)
	require.NoError(t, err)
	hub := realtime.NewHub(notes)

	cfg, err := app.LoadConfig(t.TempDir())
	require.NoError(t, err)

	router, err := NewRouter(db, authn, hub, notes, cfg)
	require.NoError(t, err)

	token, err := jwtSvc.GenerateAccessToken("user-a", "anele")
	require.NoError(t, err)

	return router, token
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRouterHealthAndMetricsArePublic(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), "inkwell_")
}

func TestRouterRejectsUnauthenticatedAPIAccess(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/api/notes", "", nil)
	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRouterNoteLifecycle(t *testing.T) {
	router, token := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/api/notes", token, gin.H{"title": "Roadmap", "content": "q3"})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	raw, err := json.Marshal(payload.Data)
	require.NoError(t, err)

	var created services.NoteWithPermission
	require.NoError(t, json.Unmarshal(raw, &created))
	noteID := created.Note.ID
	require.NotEmpty(t, noteID)

	recorder = doJSON(t, router, http.MethodPatch, "/api/notes/"+noteID, token, gin.H{"content": "q3 revised"})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, "/api/notes/"+noteID+"/presence", token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodDelete, "/api/notes/"+noteID, token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodPatch, "/api/notes/"+noteID, token, gin.H{"content": "zombie"})
	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRouterUnknownRouteIsJSON404(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/nope", "", nil)
	require.Equal(t, http.StatusNotFound, recorder.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &payload))
	require.False(t, payload.Success)
	require.Equal(t, "NOT_FOUND", payload.Error.Code)
}
