package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Leganyst/reservation-platform/internal/calendar"
	"github.com/Leganyst/reservation-platform/internal/model"
	"github.com/Leganyst/reservation-platform/internal/reservation"
)

const (
	maxNameLen    = 100
	maxEmailLen   = 255
	maxContactLen = 64
	maxNotesLen   = 2000
	maxSearchLen  = 255
)

var _ ReservationServiceServer = (*ReservationService)(nil)

type pageOf = calendar.Page[model.Reservation]

// ReservationService — gRPC-фасад над движком бронирования.
// Здесь только проверка формы запросов и маппинг; правила живут в движке.
type ReservationService struct {
	engine *reservation.Engine
}

func NewReservationService(engine *reservation.Engine) *ReservationService {
	return &ReservationService{engine: engine}
}

func (s *ReservationService) CreateReservation(
	ctx context.Context,
	req *CreateReservationRequest,
) (*ReservationResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	resourceID, err := parseID("resource_id", req.ResourceId)
	if err != nil {
		return nil, err
	}
	if req.StartsAt == nil || req.EndsAt == nil {
		return nil, status.Error(codes.InvalidArgument, "starts_at and ends_at are required")
	}
	if err := req.StartsAt.CheckValid(); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "starts_at: %v", err)
	}
	if err := req.EndsAt.CheckValid(); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "ends_at: %v", err)
	}
	for _, f := range []struct {
		name  string
		value string
		max   int
	}{
		{"requester_name", req.RequesterName, maxNameLen},
		{"requester_email", req.RequesterEmail, maxEmailLen},
		{"requester_contact", req.RequesterContact, maxContactLen},
		{"notes", req.Notes, maxNotesLen},
	} {
		if len(f.value) > f.max {
			return nil, status.Errorf(codes.InvalidArgument, "%s is longer than %d", f.name, f.max)
		}
	}
	if e := strings.TrimSpace(req.RequesterEmail); e != "" && !strings.Contains(e, "@") {
		return nil, status.Error(codes.InvalidArgument, "requester_email is not an email address")
	}

	r, err := s.engine.Create(ctx, actor, reservation.CreateRequest{
		ResourceID:       resourceID,
		Start:            req.StartsAt.AsTime(),
		End:              req.EndsAt.AsTime(),
		RequesterName:    req.RequesterName,
		RequesterEmail:   req.RequesterEmail,
		RequesterContact: req.RequesterContact,
		Notes:            req.Notes,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &ReservationResponse{Reservation: mapReservation(r)}, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, req *ReservationIDRequest) (*ReservationResponse, error) {
	return s.byID(ctx, req.ReservationId, s.engine.Get)
}

func (s *ReservationService) ConfirmReservation(ctx context.Context, req *ReservationIDRequest) (*ReservationResponse, error) {
	return s.byID(ctx, req.ReservationId, s.engine.Confirm)
}

func (s *ReservationService) RejectReservation(ctx context.Context, req *ReservationIDRequest) (*ReservationResponse, error) {
	return s.byID(ctx, req.ReservationId, s.engine.Reject)
}

func (s *ReservationService) CancelReservation(ctx context.Context, req *ReservationIDRequest) (*ReservationResponse, error) {
	return s.byID(ctx, req.ReservationId, s.engine.Cancel)
}

func (s *ReservationService) UpdateReservationStatus(
	ctx context.Context,
	req *UpdateStatusRequest,
) (*ReservationResponse, error) {
	st := model.ReservationStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !st.Valid() {
		return nil, status.Errorf(codes.InvalidArgument, "unknown status %q", req.Status)
	}
	return s.byID(ctx, req.ReservationId, func(ctx context.Context, a reservation.Actor, id uuid.UUID) (*model.Reservation, error) {
		return s.engine.UpdateStatus(ctx, a, id, st)
	})
}

func (s *ReservationService) byID(
	ctx context.Context,
	rawID string,
	op func(context.Context, reservation.Actor, uuid.UUID) (*model.Reservation, error),
) (*ReservationResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	id, err := parseID("reservation_id", rawID)
	if err != nil {
		return nil, err
	}
	r, err := op(ctx, actor, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ReservationResponse{Reservation: mapReservation(r)}, nil
}

func (s *ReservationService) ListReservationsMade(
	ctx context.Context,
	req *ListReservationsRequest,
) (*ListReservationsResponse, error) {
	return s.list(ctx, req, s.engine.ListMade)
}

func (s *ReservationService) ListReservationsReceived(
	ctx context.Context,
	req *ListReservationsRequest,
) (*ListReservationsResponse, error) {
	return s.list(ctx, req, s.engine.ListReceived)
}

func (s *ReservationService) list(
	ctx context.Context,
	req *ListReservationsRequest,
	op func(context.Context, reservation.Actor, reservation.ListQuery) (pageOf, error),
) (*ListReservationsResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if len(req.Search) > maxSearchLen {
		return nil, status.Errorf(codes.InvalidArgument, "search is longer than %d", maxSearchLen)
	}

	page, err := op(ctx, actor, reservation.ListQuery{
		Page:   int(req.Page),
		Limit:  int(req.Limit),
		Search: req.Search,
		Status: model.ReservationStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &ListReservationsResponse{
		Reservations: make([]*Reservation, 0, len(page.Items)),
		Total:        page.Total,
		Page:         int32(page.Page),
		LastPage:     int32(page.LastPage),
	}
	for i := range page.Items {
		resp.Reservations = append(resp.Reservations, mapReservation(&page.Items[i]))
	}
	return resp, nil
}

func (s *ReservationService) GetDashboard(ctx context.Context, _ *DashboardRequest) (*DashboardResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	d, err := s.engine.Dashboard(ctx, actor)
	if err != nil {
		return nil, toStatus(err)
	}
	return &DashboardResponse{
		MyResourceCount:      d.MyResourceCount,
		PendingApprovalCount: d.PendingApprovalCount,
		MyReservationsCount:  d.MyReservationsCount,
		NextReservationMade:  mapBrief(d.NextReservationMade),
		NextPendingApproval:  mapBrief(d.NextPendingApproval),
	}, nil
}

func (s *ReservationService) GetAdminMetrics(ctx context.Context, _ *AdminMetricsRequest) (*AdminMetricsResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.engine.AdminMetrics(ctx, actor)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &AdminMetricsResponse{
		UsersTotal:               m.UsersTotal,
		ResourcesTotal:           m.ResourcesTotal,
		ResourcesLastWeek:        m.ResourcesLastWeek,
		ResourcesByType:          make([]*TypeCount, 0, len(m.ResourcesByType)),
		ReservationsTotal:        m.ReservationsTotal,
		ReservationsPending:      m.ReservationsPending,
		ReservationsConfirmed:    m.ReservationsConfirmed,
		RecentReservations:       make([]*Reservation, 0, len(m.RecentReservations)),
		PotentialConfirmedIncome: m.PotentialConfirmedIncome,
	}
	for _, tc := range m.ResourcesByType {
		resp.ResourcesByType = append(resp.ResourcesByType, &TypeCount{Type: tc.Type, Count: tc.Count})
	}
	for i := range m.RecentReservations {
		resp.RecentReservations = append(resp.RecentReservations, mapReservation(&m.RecentReservations[i]))
	}
	return resp, nil
}

// CheckAvailability доступен без инициатора: это подсказка для формы бронирования.
func (s *ReservationService) CheckAvailability(
	ctx context.Context,
	req *CheckAvailabilityRequest,
) (*CheckAvailabilityResponse, error) {
	resourceID, err := parseID("resource_id", req.ResourceId)
	if err != nil {
		return nil, err
	}
	if req.StartsAt == nil || req.EndsAt == nil {
		return nil, status.Error(codes.InvalidArgument, "starts_at and ends_at are required")
	}

	conflict, err := s.engine.CheckAvailability(ctx, resourceID, req.StartsAt.AsTime(), req.EndsAt.AsTime())
	if err != nil {
		return nil, toStatus(err)
	}
	if conflict != nil {
		return &CheckAvailabilityResponse{Available: false, ConflictingId: conflict.ID.String()}, nil
	}
	return &CheckAvailabilityResponse{Available: true}, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s: %v", field, err)
	}
	return id, nil
}

func mapReservation(r *model.Reservation) *Reservation {
	if r == nil {
		return nil
	}
	out := &Reservation{
		Id:               r.ID.String(),
		ResourceId:       r.ResourceID.String(),
		RequesterId:      r.RequesterID.String(),
		StartsAt:         timestamppb.New(r.StartsAt),
		EndsAt:           timestamppb.New(r.EndsAt),
		Status:           string(r.Status),
		RequesterName:    r.RequesterName,
		RequesterEmail:   r.RequesterEmail,
		RequesterContact: r.RequesterContact,
		Notes:            r.Notes,
		CreatedAt:        timestamppb.New(r.CreatedAt),
		UpdatedAt:        timestamppb.New(r.UpdatedAt),
	}
	if r.Resource != nil {
		out.ResourceName = r.Resource.Name
		out.OwnerId = r.Resource.OwnerID.String()
	}
	return out
}

func mapBrief(b *reservation.Brief) *ReservationBrief {
	if b == nil {
		return nil
	}
	return &ReservationBrief{
		Id:           b.ID.String(),
		ResourceName: b.ResourceName,
		StartsAt:     timestamppb.New(b.Start),
		Status:       string(b.Status),
	}
}
