package grpc

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/doodad-labs/throwaway-email-checker/internal/domain"
	"github.com/doodad-labs/throwaway-email-checker/internal/metrics"
	"github.com/doodad-labs/throwaway-email-checker/internal/registry"
)

type Server struct {
	holder  *registry.Holder
	metrics *metrics.Metrics
}

var _ CheckerServer = (*Server)(nil)

// NewServer serves checks from holder. m may be nil.
func NewServer(holder *registry.Holder, m *metrics.Metrics) *Server {
	return &Server{holder: holder, metrics: m}
}

const maxInputLen = 1024

func (s *Server) CheckEmail(ctx context.Context, req *CheckEmailRequest) (*CheckEmailResponse, error) {
	// Passed through untouched: surrounding whitespace makes an address
	// invalid, it is not stripped.
	email := req.Email
	if err := checkInput("email", email); err != nil {
		return nil, err
	}

	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	cfg := domain.ValidationConfig{
		ValidateTLD:      !req.SkipTLDCheck,
		BlockDisposables: !req.AllowDisposable,
	}
	resp := &CheckEmailResponse{
		Valid:      snap.IsValidEmail(email, cfg),
		Disposable: snap.IsDisposable(domain.ExtractDomain(email)),
	}
	s.observe("email", resp.Valid)
	return resp, nil
}

func (s *Server) CheckDomain(ctx context.Context, req *CheckDomainRequest) (*CheckDomainResponse, error) {
	// A domain is a lookup key: validate and report its normalized form.
	d := domain.Normalize(req.Domain)
	if err := checkInput("domain", d); err != nil {
		return nil, err
	}

	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	resp := &CheckDomainResponse{
		Domain:     d,
		Valid:      snap.ValidateDomain(d),
		Disposable: snap.IsDisposable(d),
		Allowed:    snap.IsAllowed(d),
	}
	if parent, ok := domain.DisposableParent(snap, d); ok && parent != d {
		resp.MatchedParent = parent
	}
	s.observe("domain", resp.Valid && !resp.Disposable)
	return resp, nil
}

func (s *Server) Stats(ctx context.Context, req *StatsRequest) (*StatsResponse, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return &StatsResponse{
		DisposableDomains: snap.Disposable.Len(),
		AllowedDomains:    snap.Allow.Len(),
		TLDs:              snap.TLDs.Len(),
		GeneratedAt:       formatTime(snap.GeneratedAt),
		LoadedAt:          formatTime(snap.LoadedAt),
	}, nil
}

func (s *Server) snapshot() (*domain.Snapshot, error) {
	if !s.holder.Ready() {
		return nil, status.Error(codes.Unavailable, "registry not loaded yet")
	}
	return s.holder.Get(), nil
}

func (s *Server) observe(kind string, ok bool) {
	if s.metrics == nil {
		return
	}
	result := "rejected"
	if ok {
		result = "accepted"
	}
	s.metrics.ObserveCheck(kind, result)
}

func checkInput(field, v string) error {
	if v == "" {
		return status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	if len(v) > maxInputLen {
		return status.Errorf(codes.InvalidArgument, "%s is too long", field)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// NewGRPCServer builds a grpc.Server with the Checker service registered.
func NewGRPCServer(srv *Server, log logrus.FieldLogger) *grpc.Server {
	s := grpc.NewServer(
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.ChainUnaryInterceptor(loggingInterceptor(log)),
	)
	RegisterCheckerServer(s, srv)
	return s
}

// RunGRPCServer starts a gRPC server on the given address and
// shuts it down gracefully when the context is canceled.
func RunGRPCServer(ctx context.Context, addr string, srv *Server, log logrus.FieldLogger) error {
	if addr == "" {
		addr = ":9090"
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s := NewGRPCServer(srv, log)

	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	log.WithField("addr", lis.Addr().String()).Info("grpc: server listening")
	if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func loggingInterceptor(log logrus.FieldLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		entry := log.WithFields(logrus.Fields{
			"method": info.FullMethod,
			"code":   status.Code(err).String(),
			"took":   time.Since(start).String(),
		})
		if err != nil && status.Code(err) != codes.InvalidArgument {
			entry.WithError(err).Warn("grpc: call failed")
		} else {
			entry.Debug("grpc: call")
		}
		return resp, err
	}
}
