package reservation

import "errors"

// Kind — класс ошибки ядра бронирования.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidArgument
	KindInvalidInterval
	KindResourceNotFound
	KindSelfBookingDenied
	KindBookingConflict
	KindReservationNotFound
	KindNotAuthorized
	KindInvalidStateTransition
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindInvalidInterval:
		return "InvalidInterval"
	case KindResourceNotFound:
		return "ResourceNotFound"
	case KindSelfBookingDenied:
		return "SelfBookingDenied"
	case KindBookingConflict:
		return "BookingConflict"
	case KindReservationNotFound:
		return "ReservationNotFound"
	case KindNotAuthorized:
		return "NotAuthorized"
	case KindInvalidStateTransition:
		return "InvalidStateTransition"
	default:
		return "Internal"
	}
}

// Error — пользовательская (не повторяемая) ошибка ядра.
type Error struct {
	Kind Kind
	msg  string
}

func (e *Error) Error() string { return e.msg }

var (
	ErrInvalidArgument        = &Error{Kind: KindInvalidArgument, msg: "invalid argument"}
	ErrInvalidInterval        = &Error{Kind: KindInvalidInterval, msg: "start must be before end"}
	ErrResourceNotFound       = &Error{Kind: KindResourceNotFound, msg: "resource not found"}
	ErrSelfBookingDenied      = &Error{Kind: KindSelfBookingDenied, msg: "cannot book own resource"}
	ErrBookingConflict        = &Error{Kind: KindBookingConflict, msg: "resource already booked for this period"}
	ErrReservationNotFound    = &Error{Kind: KindReservationNotFound, msg: "reservation not found"}
	ErrNotAuthorized          = &Error{Kind: KindNotAuthorized, msg: "not authorized"}
	ErrInvalidStateTransition = &Error{Kind: KindInvalidStateTransition, msg: "invalid state transition"}
)

// KindOf возвращает класс ошибки; всё, что не *Error, — KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
