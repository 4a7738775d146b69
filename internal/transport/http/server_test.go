package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
	"github.com/doodad-labs/throwaway-email-checker/internal/metrics"
	"github.com/doodad-labs/throwaway-email-checker/internal/registry"
	grpcTransport "github.com/doodad-labs/throwaway-email-checker/internal/transport/grpc"
)

func newTestHolder(t testing.TB) *registry.Holder {
	t.Helper()

	tlds, err := domain.NewTLDSet([]string{"com", "org"})
	require.NoError(t, err)

	h := registry.NewHolder()
	h.Set(&domain.Snapshot{
		TLDs:       tlds,
		Disposable: domain.NewDomainSet([]string{"mailinator.com"}),
		Allow:      domain.NewDomainSet([]string{"gmail.com"}),
		LoadedAt:   time.Now(),
	})
	return h
}

func newTestRouter(t testing.TB, holder *registry.Holder) http.Handler {
	t.Helper()

	reg := prometheus.NewRegistry()
	logger, _ := logtest.NewNullLogger()
	srv := grpcTransport.NewServer(holder, metrics.New(reg))
	h, err := NewRouter(NewHandler(srv, holder, logger), reg)
	require.NoError(t, err)
	return h
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCheckEmail(t *testing.T) {
	h := newTestRouter(t, newTestHolder(t))

	tests := []struct {
		target string
		want   string
	}{
		{"/api/v1/check/email?email=user@gmail.com", `{"valid":true,"disposable":false}`},
		{"/api/v1/check/email?email=user@mailinator.com", `{"valid":false,"disposable":true}`},
		{"/api/v1/check/email?email=user@mailinator.com&block_disposables=false", `{"valid":true,"disposable":true}`},
		{"/api/v1/check/email?email=user@example.con", `{"valid":false,"disposable":false}`},
		{"/api/v1/check/email?email=user@example.con&validate_tld=0", `{"valid":true,"disposable":false}`},
		{"/api/v1/check/email?email=%20user@gmail.com%09", `{"valid":false,"disposable":false}`},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := get(h, tt.target)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestCheckEmail_BadRequest(t *testing.T) {
	h := newTestRouter(t, newTestHolder(t))

	for _, target := range []string{
		"/api/v1/check/email",
		"/api/v1/check/email?email=a@b.com&validate_tld=maybe",
		"/api/v1/check/email?email=a@b.com&block_disposables=maybe",
		"/api/v1/check/email?email=" + strings.Repeat("a", 1100),
	} {
		w := get(h, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	h := NewHandler(nil, registry.NewHolder(), logger)

	tests := []struct {
		err  error
		want int
	}{
		{status.Error(codes.InvalidArgument, "bad"), http.StatusBadRequest},
		{status.Error(codes.Unavailable, "later"), http.StatusServiceUnavailable},
		{status.Error(codes.DeadlineExceeded, "slow"), http.StatusGatewayTimeout},
		{status.Error(codes.NotFound, "gone"), http.StatusNotFound},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			h.writeError(w, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil), tt.err)
			assert.Equal(t, tt.want, w.Code)
			assert.JSONEq(t, `{"error":"`+status.Convert(tt.err).Message()+`"}`, w.Body.String())
		})
	}
}

func TestUnknownAPIRoute(t *testing.T) {
	h := newTestRouter(t, newTestHolder(t))

	assert.Equal(t, http.StatusNotFound, get(h, "/api/v1/nope").Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/v1/stats").Code)
}

func TestCheckDomain(t *testing.T) {
	h := newTestRouter(t, newTestHolder(t))

	w := get(h, "/api/v1/check/domain?domain=Mailinator.COM")
	require.Equal(t, http.StatusOK, w.Code)

	var resp grpcTransport.CheckDomainResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "mailinator.com", resp.Domain)
	assert.True(t, resp.Valid)
	assert.True(t, resp.Disposable)
	assert.False(t, resp.Allowed)
}

func TestStats(t *testing.T) {
	h := newTestRouter(t, newTestHolder(t))

	w := get(h, "/api/v1/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var resp grpcTransport.StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.DisposableDomains)
	assert.Equal(t, 2, resp.TLDs)
	assert.Empty(t, resp.GeneratedAt)
}

func TestNotReady(t *testing.T) {
	h := newTestRouter(t, registry.NewHolder())

	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/readyz").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/api/v1/check/email?email=a@gmail.com").Code)
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
}

func TestReadyAndMetrics(t *testing.T) {
	h := newTestRouter(t, newTestHolder(t))

	assert.Equal(t, http.StatusOK, get(h, "/readyz").Code)

	_ = get(h, "/api/v1/check/email?email=user@gmail.com")
	w := get(h, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `throwaway_checks_total{kind="email",result="accepted"} 1`)
}

func BenchmarkHTTP_CheckEmail(b *testing.B) {
	h := newTestRouter(b, newTestHolder(b))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check/email?email=user@gmail.com", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
	}
}
