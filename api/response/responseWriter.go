package response

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// responseWriter records the status and body of a proxied banshee response
// while passing both through to the client.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func NewResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK, &bytes.Buffer{}}
}

// WriteHeader to capture status code
func (rw *responseWriter) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write to capture body
func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.body.Write(b)
	return rw.ResponseWriter.Write(b)
}

// BansheeError is the error body banshee answers failed requests with.
type BansheeError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

// ParseBansheeError decodes the recorded body of a failed response. It
// returns nil for successful responses and bodies that are not banshee errors.
func (rw *responseWriter) ParseBansheeError() *BansheeError {
	if rw.statusCode < http.StatusBadRequest {
		return nil
	}

	var reader io.Reader = bytes.NewReader(rw.body.Bytes())
	if strings.Contains(rw.ResponseWriter.Header().Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			slog.Error("unable to create gzip reader", "err", err)
			return nil
		}
		defer gz.Close()
		reader = gz
	}

	var e BansheeError
	if err := json.NewDecoder(reader).Decode(&e); err != nil {
		slog.Debug("unable to decode banshee error body", "err", err)
		return nil
	}
	if e.Msg == "" {
		return nil
	}
	return &e
}

func (rw *responseWriter) GetStatusCode() int {
	return rw.statusCode
}

func (rw *responseWriter) GetBodySize() int {
	return rw.body.Len()
}
