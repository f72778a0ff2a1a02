package service

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/Leganyst/reservation-platform/internal/db"
	"github.com/Leganyst/reservation-platform/internal/model"
	"github.com/Leganyst/reservation-platform/internal/repository"
	"github.com/Leganyst/reservation-platform/internal/reservation"
)

type testEnv struct {
	client    *ReservationServiceClient
	conn      *grpc.ClientConn
	owner     *model.User
	requester *model.User
	room      *model.Resource
	base      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := db.NewInMemory()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := model.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	env := &testEnv{
		owner:     &model.User{Email: "owner@example.com"},
		requester: &model.User{Email: "paul@example.com"},
		base:      time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour),
	}
	for _, u := range []*model.User{env.owner, env.requester} {
		if err := gdb.Create(u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}
	env.room = &model.Resource{OwnerID: env.owner.ID, Name: "Salle Verte", Type: "room"}
	if err := gdb.Create(env.room).Error; err != nil {
		t.Fatalf("create resource: %v", err)
	}

	engine := reservation.NewEngine(repository.NewGormStore(gdb))
	srv := NewServer(engine, logr.Discard())

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	env.conn = conn
	env.client = NewReservationServiceClient(conn)

	t.Cleanup(func() {
		_ = conn.Close()
		srv.Shutdown(context.Background())
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return env
}

func as(u *model.User, role string) context.Context {
	md := metadata.Pairs(HeaderUserID, u.ID.String())
	if role != "" {
		md.Append(HeaderUserRole, role)
	}
	return metadata.NewOutgoingContext(context.Background(), md)
}

func (env *testEnv) interval(from, to int) (*timestamppb.Timestamp, *timestamppb.Timestamp) {
	return timestamppb.New(env.base.Add(time.Duration(from) * time.Hour)),
		timestamppb.New(env.base.Add(time.Duration(to) * time.Hour))
}

func wantCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	if got := status.Code(err); got != code {
		t.Fatalf("expected %s, got %s (%v)", code, got, err)
	}
}

func TestReservationService_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	start, end := env.interval(0, 2)

	created, err := env.client.CreateReservation(as(env.requester, ""), &CreateReservationRequest{
		ResourceId:     env.room.ID.String(),
		StartsAt:       start,
		EndsAt:         end,
		RequesterEmail: "paul@example.com",
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	r := created.Reservation
	if r.Status != string(model.ReservationStatusPending) || r.ResourceName != "Salle Verte" || r.OwnerId != env.owner.ID.String() {
		t.Fatalf("unexpected reservation: %+v", r)
	}
	if !r.StartsAt.AsTime().Equal(start.AsTime()) || !r.EndsAt.AsTime().Equal(end.AsTime()) {
		t.Fatalf("interval changed: %v..%v", r.StartsAt.AsTime(), r.EndsAt.AsTime())
	}

	// пересечение
	overlapStart, overlapEnd := env.interval(1, 3)
	_, err = env.client.CreateReservation(as(env.requester, ""), &CreateReservationRequest{
		ResourceId: env.room.ID.String(), StartsAt: overlapStart, EndsAt: overlapEnd,
	})
	wantCode(t, err, codes.AlreadyExists)

	avail, err := env.client.CheckAvailability(context.Background(), &CheckAvailabilityRequest{
		ResourceId: env.room.ID.String(), StartsAt: overlapStart, EndsAt: overlapEnd,
	})
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if avail.Available || avail.ConflictingId != r.Id {
		t.Fatalf("expected conflict with %s, got %+v", r.Id, avail)
	}

	_, err = env.client.ConfirmReservation(as(env.requester, ""), &ReservationIDRequest{ReservationId: r.Id})
	wantCode(t, err, codes.PermissionDenied)

	confirmed, err := env.client.UpdateReservationStatus(as(env.owner, ""), &UpdateStatusRequest{ReservationId: r.Id, Status: "CONFIRMED"})
	if err != nil {
		t.Fatalf("UpdateReservationStatus: %v", err)
	}
	if confirmed.Reservation.Status != string(model.ReservationStatusConfirmed) {
		t.Fatalf("expected confirmed, got %s", confirmed.Reservation.Status)
	}

	_, err = env.client.CancelReservation(as(env.requester, ""), &ReservationIDRequest{ReservationId: r.Id})
	wantCode(t, err, codes.FailedPrecondition)

	got, err := env.client.GetReservation(as(env.owner, ""), &ReservationIDRequest{ReservationId: r.Id})
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if got.Reservation.Status != string(model.ReservationStatusConfirmed) {
		t.Fatalf("unexpected status %s", got.Reservation.Status)
	}

	list, err := env.client.ListReservationsReceived(as(env.owner, ""), &ListReservationsRequest{Search: "verte"})
	if err != nil {
		t.Fatalf("ListReservationsReceived: %v", err)
	}
	if list.Total != 1 || len(list.Reservations) != 1 || list.Page != 1 || list.LastPage != 1 {
		t.Fatalf("unexpected list: %+v", list)
	}

	dash, err := env.client.GetDashboard(as(env.requester, ""), &DashboardRequest{})
	if err != nil {
		t.Fatalf("GetDashboard: %v", err)
	}
	if dash.MyReservationsCount != 1 || dash.NextReservationMade == nil || dash.NextReservationMade.Id != r.Id {
		t.Fatalf("unexpected dashboard: %+v", dash)
	}
}

func TestReservationService_RequestValidation(t *testing.T) {
	env := newTestEnv(t)
	start, end := env.interval(0, 2)

	_, err := env.client.CreateReservation(context.Background(), &CreateReservationRequest{
		ResourceId: env.room.ID.String(), StartsAt: start, EndsAt: end,
	})
	wantCode(t, err, codes.Unauthenticated)

	bad := metadata.NewOutgoingContext(context.Background(), metadata.Pairs(HeaderUserID, "not-a-uuid"))
	_, err = env.client.GetDashboard(bad, &DashboardRequest{})
	wantCode(t, err, codes.Unauthenticated)

	_, err = env.client.CreateReservation(as(env.requester, ""), &CreateReservationRequest{ResourceId: "x", StartsAt: start, EndsAt: end})
	wantCode(t, err, codes.InvalidArgument)

	_, err = env.client.CreateReservation(as(env.requester, ""), &CreateReservationRequest{ResourceId: env.room.ID.String(), StartsAt: start})
	wantCode(t, err, codes.InvalidArgument)

	_, err = env.client.CreateReservation(as(env.requester, ""), &CreateReservationRequest{
		ResourceId: env.room.ID.String(), StartsAt: end, EndsAt: start,
	})
	wantCode(t, err, codes.InvalidArgument)

	_, err = env.client.CreateReservation(as(env.owner, ""), &CreateReservationRequest{
		ResourceId: env.room.ID.String(), StartsAt: start, EndsAt: end,
	})
	wantCode(t, err, codes.PermissionDenied)

	_, err = env.client.CreateReservation(as(env.requester, ""), &CreateReservationRequest{
		ResourceId: uuid.NewString(), StartsAt: start, EndsAt: end,
	})
	wantCode(t, err, codes.NotFound)

	_, err = env.client.UpdateReservationStatus(as(env.owner, ""), &UpdateStatusRequest{ReservationId: uuid.NewString(), Status: "approved"})
	wantCode(t, err, codes.InvalidArgument)

	_, err = env.client.GetReservation(as(env.owner, ""), &ReservationIDRequest{ReservationId: uuid.NewString()})
	wantCode(t, err, codes.NotFound)

	_, err = env.client.GetAdminMetrics(as(env.owner, ""), &AdminMetricsRequest{})
	wantCode(t, err, codes.PermissionDenied)

	_, err = env.client.GetAdminMetrics(as(env.owner, "superuser"), &AdminMetricsRequest{})
	wantCode(t, err, codes.Unauthenticated)
}

func TestReservationService_AdminMetrics(t *testing.T) {
	env := newTestEnv(t)

	m, err := env.client.GetAdminMetrics(as(env.requester, "admin"), &AdminMetricsRequest{})
	if err != nil {
		t.Fatalf("GetAdminMetrics: %v", err)
	}
	if m.UsersTotal != 2 || m.ResourcesTotal != 1 || m.ReservationsTotal != 0 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

func TestReservationService_Health(t *testing.T) {
	env := newTestEnv(t)

	resp, err := healthpb.NewHealthClient(env.conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		t.Fatalf("health check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("expected SERVING, got %s", resp.GetStatus())
	}
}
