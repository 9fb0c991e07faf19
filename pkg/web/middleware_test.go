package web

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDInjector(t *testing.T) {
	tests := []struct {
		name    string
		handler func(http.Handler) http.Handler
		fromChi bool
	}{
		{
			name:    "falls back to a generated id",
			handler: RequestIDInjector,
		},
		{
			name: "reuses the chi request id",
			handler: func(next http.Handler) http.Handler {
				return middleware.RequestID(RequestIDInjector(next))
			},
			fromChi: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// given
			var got, chiID string
			h := tt.handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = RequestID(r.Context())
				chiID = middleware.GetReqID(r.Context())
			}))
			rec := httptest.NewRecorder()

			// when
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			// then
			require.NotEmpty(t, got)
			assert.Equal(t, got, rec.Header().Get(RequestIDHeader))
			if tt.fromChi {
				assert.Equal(t, chiID, got)
			} else {
				assert.Empty(t, chiID)
			}
		})
	}
}

func TestRequestID_OutsideInjector(t *testing.T) {
	// given
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "chi-1")

	// when
	id := RequestID(ctx)

	// then
	assert.Equal(t, "chi-1", id)
	assert.Empty(t, RequestID(context.Background()))
}

func TestRecoverer_LogsRequestID(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestIDInjector(Recoverer(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()

	// when
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	// then
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), `"request_id":"`)
	assert.NotContains(t, buf.String(), `"request_id":""`)
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	// given
	logger := slog.New(slog.DiscardHandler)
	var dst struct {
		Name string `json:"name"`
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"name":"x","extra":1}`))

	// when
	ok := DecodeJSON(rec, req, logger, &dst)

	// then
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid request body"}`, rec.Body.String())
}
