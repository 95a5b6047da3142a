package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusUnauthorized, ErrUnauthorizedCode, "denied", nil)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "2.0", resp.JSONRPC)
	require.NotNil(t, resp.Error)
	require.Equal(t, ErrUnauthorizedCode, resp.Error.Code)
	require.Equal(t, "denied", resp.Error.Message)
}
