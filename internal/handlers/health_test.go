package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/ndlovu-dev/inkwell/internal/database/testutil"
	"github.com/ndlovu-dev/inkwell/internal/realtime"
	"github.com/ndlovu-dev/inkwell/internal/services"
	"github.com/ndlovu-dev/inkwell/pkg/response"
)

func TestHealthReportsDatabaseAndHub(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t)
	svc, err := services.NewNoteService(db)
	require.NoError(t, err)
	hub := realtime.NewHub(svc)

	r := gin.New()
	r.GET("/health", Health(db, hub))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var payload response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.True(t, payload.Success)

	data := payload.Data.(map[string]any)
	require.Equal(t, "ok", data["status"])
	require.Equal(t, "ok", data["database"])
	require.Contains(t, data, "realtime")
}
