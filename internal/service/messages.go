package service

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Сообщения API. Времена передаются как google.protobuf.Timestamp.

type Reservation struct {
	Id               string                 `json:"id"`
	ResourceId       string                 `json:"resource_id"`
	ResourceName     string                 `json:"resource_name,omitempty"`
	OwnerId          string                 `json:"owner_id,omitempty"`
	RequesterId      string                 `json:"requester_id"`
	StartsAt         *timestamppb.Timestamp `json:"starts_at"`
	EndsAt           *timestamppb.Timestamp `json:"ends_at"`
	Status           string                 `json:"status"`
	RequesterName    string                 `json:"requester_name,omitempty"`
	RequesterEmail   string                 `json:"requester_email,omitempty"`
	RequesterContact string                 `json:"requester_contact,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
	CreatedAt        *timestamppb.Timestamp `json:"created_at,omitempty"`
	UpdatedAt        *timestamppb.Timestamp `json:"updated_at,omitempty"`
}

type CreateReservationRequest struct {
	ResourceId       string                 `json:"resource_id"`
	StartsAt         *timestamppb.Timestamp `json:"starts_at"`
	EndsAt           *timestamppb.Timestamp `json:"ends_at"`
	RequesterName    string                 `json:"requester_name,omitempty"`
	RequesterEmail   string                 `json:"requester_email,omitempty"`
	RequesterContact string                 `json:"requester_contact,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
}

type ReservationIDRequest struct {
	ReservationId string `json:"reservation_id"`
}

type UpdateStatusRequest struct {
	ReservationId string `json:"reservation_id"`
	Status        string `json:"status"`
}

type ReservationResponse struct {
	Reservation *Reservation `json:"reservation"`
}

type ListReservationsRequest struct {
	Page   int32  `json:"page,omitempty"`
	Limit  int32  `json:"limit,omitempty"`
	Search string `json:"search,omitempty"`
	Status string `json:"status,omitempty"`
}

type ListReservationsResponse struct {
	Reservations []*Reservation `json:"reservations"`
	Total        int64          `json:"total"`
	Page         int32          `json:"page"`
	LastPage     int32          `json:"last_page"`
}

type DashboardRequest struct{}

type ReservationBrief struct {
	Id           string                 `json:"id"`
	ResourceName string                 `json:"resource_name"`
	StartsAt     *timestamppb.Timestamp `json:"starts_at"`
	Status       string                 `json:"status"`
}

type DashboardResponse struct {
	MyResourceCount      int64             `json:"my_resource_count"`
	PendingApprovalCount int64             `json:"pending_approval_count"`
	MyReservationsCount  int64             `json:"my_reservations_count"`
	NextReservationMade  *ReservationBrief `json:"next_reservation_made,omitempty"`
	NextPendingApproval  *ReservationBrief `json:"next_pending_approval,omitempty"`
}

type AdminMetricsRequest struct{}

type TypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

type AdminMetricsResponse struct {
	UsersTotal               int64          `json:"users_total"`
	ResourcesTotal           int64          `json:"resources_total"`
	ResourcesLastWeek        int64          `json:"resources_last_week"`
	ResourcesByType          []*TypeCount   `json:"resources_by_type"`
	ReservationsTotal        int64          `json:"reservations_total"`
	ReservationsPending      int64          `json:"reservations_pending"`
	ReservationsConfirmed    int64          `json:"reservations_confirmed"`
	RecentReservations       []*Reservation `json:"recent_reservations"`
	PotentialConfirmedIncome float64        `json:"potential_confirmed_income"`
}

type CheckAvailabilityRequest struct {
	ResourceId string                 `json:"resource_id"`
	StartsAt   *timestamppb.Timestamp `json:"starts_at"`
	EndsAt     *timestamppb.Timestamp `json:"ends_at"`
}

type CheckAvailabilityResponse struct {
	Available     bool   `json:"available"`
	ConflictingId string `json:"conflicting_id,omitempty"`
}
