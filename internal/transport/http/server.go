package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/doodad-labs/throwaway-email-checker/internal/registry"
	grpcTransport "github.com/doodad-labs/throwaway-email-checker/internal/transport/grpc"
)

// Handler exposes the Checker service as JSON over HTTP. Calls go to the
// gRPC server implementation in process.
type Handler struct {
	checker grpcTransport.CheckerServer
	holder  *registry.Holder
	log     logrus.FieldLogger
}

func NewHandler(checker grpcTransport.CheckerServer, holder *registry.Holder, log logrus.FieldLogger) *Handler {
	return &Handler{checker: checker, holder: holder, log: log}
}

// Register mounts the API routes on r. The /api/v1 tree is served by a
// grpc-gateway mux so its path matching and error codes follow the
// gateway's conventions for the Checker service.
func (h *Handler) Register(r chi.Router) error {
	gw := runtime.NewServeMux()
	routes := []struct {
		pattern string
		handle  func(http.ResponseWriter, *http.Request)
	}{
		{"/api/v1/check/email", h.handleCheckEmail},
		{"/api/v1/check/domain", h.handleCheckDomain},
		{"/api/v1/stats", h.handleStats},
	}
	for _, rt := range routes {
		handle := rt.handle
		err := gw.HandlePath(http.MethodGet, rt.pattern, func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			handle(w, r)
		})
		if err != nil {
			return fmt.Errorf("register %s: %w", rt.pattern, err)
		}
	}
	r.Handle("/api/v1/*", gw)
	return nil
}

// NewRouter builds the full HTTP surface: API, probes and metrics.
// gatherer may be nil to leave /metrics out.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) (http.Handler, error) {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	if err := h.Register(r); err != nil {
		return nil, err
	}

	// /healthz: liveness
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// /readyz: a snapshot with a TLD table has been loaded
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !h.holder.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r, nil
}

func (h *Handler) handleCheckEmail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	validateTLD, err := boolParam(q.Get("validate_tld"), true)
	if err != nil {
		h.writeError(w, r, status.Error(codes.InvalidArgument, "validate_tld must be a boolean"))
		return
	}
	blockDisposables, err := boolParam(q.Get("block_disposables"), true)
	if err != nil {
		h.writeError(w, r, status.Error(codes.InvalidArgument, "block_disposables must be a boolean"))
		return
	}

	resp, err := h.checker.CheckEmail(r.Context(), &grpcTransport.CheckEmailRequest{
		Email:           q.Get("email"),
		SkipTLDCheck:    !validateTLD,
		AllowDisposable: !blockDisposables,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleCheckDomain(w http.ResponseWriter, r *http.Request) {
	resp, err := h.checker.CheckDomain(r.Context(), &grpcTransport.CheckDomainRequest{
		Domain: r.URL.Query().Get("domain"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, err := h.checker.Stats(r.Context(), &grpcTransport.StatsRequest{})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func boolParam(v string, def bool) (bool, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

// writeError maps gRPC status codes onto HTTP ones.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	st := status.Convert(err)
	code := runtime.HTTPStatusFromCode(st.Code())

	if code >= http.StatusInternalServerError {
		h.log.WithFields(logrus.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).WithError(err).Warn("http: request failed")
	}
	writeJSON(w, code, map[string]string{"error": st.Message()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// RunHTTPServer serves handler on addr until ctx is canceled.
func RunHTTPServer(ctx context.Context, addr string, handler http.Handler, log logrus.FieldLogger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown of the HTTP server when the parent context is canceled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("http: graceful shutdown error")
		}
	}()

	log.WithField("addr", addr).Info("http: server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
