package server

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestNewChiRouter_RequestIDAndRecovery(t *testing.T) {
	// given
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	mux := NewChiRouter(logger)
	var seenID string
	mux.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		seenID = middleware.GetReqID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	mux.Get("/panic", func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := Instrument(mux, "test")

	// when
	okRec := httptest.NewRecorder()
	handler.ServeHTTP(okRec, httptest.NewRequest(http.MethodGet, "/ok", nil))
	panicRec := httptest.NewRecorder()
	handler.ServeHTTP(panicRec, httptest.NewRequest(http.MethodGet, "/panic", nil))

	// then
	assert.Equal(t, http.StatusNoContent, okRec.Code)
	assert.NotEmpty(t, seenID)
	assert.Equal(t, http.StatusInternalServerError, panicRec.Code)
	assert.Contains(t, buf.String(), "Panic recovered")
	assert.Contains(t, buf.String(), "Request completed")
}

func TestNewGRPCServer_Health(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	registered := false
	srv, hs := NewGRPCServer(false, ObservedServerOptions(logger), func(*grpc.Server) { registered = true })
	hs.SetServingStatus("inventory", healthpb.HealthCheckResponse_SERVING)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	cc, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cc.Close() })

	// when
	resp, err := healthpb.NewHealthClient(cc).Check(context.Background(), &healthpb.HealthCheckRequest{Service: "inventory"})

	// then
	require.NoError(t, err)
	assert.True(t, registered)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}
