package grpcserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"ai-board-of-directors/backend/pkg/health"
	"ai-board-of-directors/backend/pkg/logger"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the name reported to gRPC health probes
const ServiceName = "board.v1.Board"

// Server exposes the standard gRPC health protocol for orchestrators that probe over gRPC
type Server struct {
	grpc    *grpc.Server
	health  *grpchealth.Server
	checker *health.Checker
	log     *logger.Logger
}

// New builds the server. The health status mirrors checker and is refreshed by Serve.
func New(checker *health.Checker, log *logger.Logger) *Server {
	gs := grpc.NewServer()
	hs := grpchealth.NewServer()

	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{grpc: gs, health: hs, checker: checker, log: log}
	s.sync()
	return s
}

func (s *Server) sync() {
	status := healthpb.HealthCheckResponse_SERVING
	if !s.checker.Healthy() {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
}

// Serve accepts connections on lis until ctx is cancelled, then stops gracefully
func (s *Server) Serve(ctx context.Context, lis net.Listener, refresh time.Duration) error {
	go func() {
		ticker := time.NewTicker(refresh)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.health.Shutdown()
				s.grpc.GracefulStop()
				return
			case <-ticker.C:
				s.sync()
			}
		}
	}()

	s.log.Info("gRPC server listening", "addr", lis.Addr().String())
	if err := s.grpc.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Listen opens a TCP listener on port
func Listen(port string) (net.Listener, error) {
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", port, err)
	}
	return lis, nil
}
