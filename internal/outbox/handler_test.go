package outbox

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-retail/internal/platform/db/dbtest"
)

func TestHandlerPendingAndAck(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(conn, dbtest.NewClock().Now)
	rec := enqueueCommitted(t, conn, svc, "c-1")
	enqueueCommitted(t, conn, svc, "c-2")

	r := chi.NewRouter()
	NewHandler(slog.Default(), svc).MountRoutes(r)
	do := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req = req.WithContext(dbtest.TenantContext())
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodGet, "/pending?limit=1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var pending []SyncRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, rec.ID, pending[0].ID)

	rr = do(http.MethodPost, "/ack", `{"ids":[`+jsonInt(rec.ID)+`]}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"synced":1}`, rr.Body.String())

	rr = do(http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"pending":1,"synced":1}`, rr.Body.String())

	rr = do(http.MethodPost, "/ack", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func jsonInt(v int64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
