package service

import (
	"context"
	"time"

	"github.com/go-logr/logr"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/reservation-platform/internal/reservation"
)

// Заголовки, которые проставляет шлюз после проверки токена.
const (
	HeaderUserID   = "x-user-id"
	HeaderUserRole = "x-user-role"
)

type actorKey struct{}

// ActorInterceptor извлекает инициатора из метаданных запроса.
// Запрос без x-user-id проходит дальше анонимно; методы, которым нужен
// инициатор, отвечают Unauthenticated.
func ActorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		id := first(md, HeaderUserID)
		if id == "" {
			return handler(ctx, req)
		}
		actor, err := reservation.NewActor(id, first(md, HeaderUserRole))
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return handler(context.WithValue(ctx, actorKey{}, actor), req)
	}
}

// LoggingInterceptor пишет метод, код ответа и длительность.
func LoggingInterceptor(log logr.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		started := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		kv := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(started)}
		if code == codes.Internal || code == codes.Unknown {
			log.Error(err, "grpc request failed", kv...)
		} else {
			log.V(1).Info("grpc request", kv...)
		}
		return resp, err
	}
}

func first(md metadata.MD, key string) string {
	if v := md.Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func actorFrom(ctx context.Context) (reservation.Actor, error) {
	actor, ok := ctx.Value(actorKey{}).(reservation.Actor)
	if !ok {
		return reservation.Actor{}, status.Error(codes.Unauthenticated, "x-user-id metadata is required")
	}
	return actor, nil
}
