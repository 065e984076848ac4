package response

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseWriter_CapturesAndPassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := NewResponseWriter(rec)

	rw.WriteHeader(http.StatusCreated)
	_, err := rw.Write([]byte(`{"id":1}`))
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rw.GetStatusCode())
	assert.Equal(t, 8, rw.GetBodySize())
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"id":1}`, rec.Body.String())
	assert.Nil(t, rw.ParseBansheeError())
}

func TestResponseWriter_ParseBansheeError(t *testing.T) {
	rw := NewResponseWriter(httptest.NewRecorder())
	rw.WriteHeader(http.StatusBadRequest)
	_, _ = rw.Write([]byte(`{"code":400,"msg":"Duplicate project name"}`))

	e := rw.ParseBansheeError()
	require.NotNil(t, e)
	assert.Equal(t, 400, e.Code)
	assert.Equal(t, "Duplicate project name", e.Msg)
}

func TestResponseWriter_ParseBansheeErrorGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, _ = gz.Write([]byte(`{"code":404,"msg":"Rule not found"}`))
	require.NoError(t, gz.Close())

	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Encoding", "gzip")
	rw := NewResponseWriter(rec)
	rw.WriteHeader(http.StatusNotFound)
	_, _ = rw.Write(buf.Bytes())

	e := rw.ParseBansheeError()
	require.NotNil(t, e)
	assert.Equal(t, "Rule not found", e.Msg)
}

func TestResponseWriter_NonJSONError(t *testing.T) {
	rw := NewResponseWriter(httptest.NewRecorder())
	rw.WriteHeader(http.StatusBadGateway)
	_, _ = rw.Write([]byte("bad gateway"))
	assert.Nil(t, rw.ParseBansheeError())
}
