package service

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Leganyst/reservation-platform/internal/reservation"
)

// toStatus переводит ошибку ядра в gRPC-статус.
// Внутренние ошибки наружу не раскрываются.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	switch reservation.KindOf(err) {
	case reservation.KindInvalidArgument, reservation.KindInvalidInterval:
		return status.Error(codes.InvalidArgument, err.Error())
	case reservation.KindResourceNotFound, reservation.KindReservationNotFound:
		return status.Error(codes.NotFound, err.Error())
	case reservation.KindNotAuthorized, reservation.KindSelfBookingDenied:
		return status.Error(codes.PermissionDenied, err.Error())
	case reservation.KindBookingConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	case reservation.KindInvalidStateTransition:
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
