package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/oggyb/campus-match/internal/config"
)

// GRPCServer owns the gRPC listener. Only infrastructure services (health,
// reflection) are exposed here; the product API is HTTP.
type GRPCServer struct {
	addr string
	srv  *grpc.Server
	log  *slog.Logger
}

// NewGRPCServer builds a gRPC server and registers all provided services
func NewGRPCServer(cfg *config.Config, log *slog.Logger, registrars ...Registrar) *GRPCServer {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(unaryLogger(log)))

	// register all services
	for _, r := range registrars {
		r.Register(srv)
	}

	// enable reflection for easier debugging with grpcurl
	reflection.Register(srv)

	return &GRPCServer{
		addr: fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port),
		srv:  srv,
		log:  log,
	}
}

// Start listens and serves until Stop is called.
func (s *GRPCServer) Start() error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.log.Info("starting gRPC server", "addr", s.addr)
	return s.Serve(lis)
}

// Serve runs on an existing listener.
func (s *GRPCServer) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}

// Stop drains in-flight RPCs, forcing a stop once ctx expires.
func (s *GRPCServer) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.srv.Stop()
	}
}

func unaryLogger(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		log.Debug("grpc request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		)
		return resp, err
	}
}
