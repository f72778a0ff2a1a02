package service

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/reservation-platform/internal/reservation"
)

// Server — gRPC-сервер API бронирования вместе с health-сервисом.
type Server struct {
	*grpc.Server
	health *health.Server
}

func NewServer(engine *reservation.Engine, log logr.Logger, opts ...grpc.ServerOption) *Server {
	log = log.WithName("grpc")
	opts = append(opts, grpc.ChainUnaryInterceptor(
		recoveryInterceptor(log),
		LoggingInterceptor(log),
		ActorInterceptor(),
	))

	gs := grpc.NewServer(opts...)
	RegisterReservationServiceServer(gs, NewReservationService(engine))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(gs)

	return &Server{Server: gs, health: hs}
}

// Shutdown переводит health в NOT_SERVING и дожидается активных запросов.
func (s *Server) Shutdown(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.Stop()
	}
}

func recoveryInterceptor(log logr.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if p := recover(); p != nil {
				log.Error(fmt.Errorf("panic: %v", p), "grpc handler panicked", "method", info.FullMethod)
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
