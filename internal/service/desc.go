package service

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "reservation.v1.ReservationService"

// ReservationServiceServer — серверный интерфейс API бронирования.
type ReservationServiceServer interface {
	CreateReservation(context.Context, *CreateReservationRequest) (*ReservationResponse, error)
	GetReservation(context.Context, *ReservationIDRequest) (*ReservationResponse, error)
	ConfirmReservation(context.Context, *ReservationIDRequest) (*ReservationResponse, error)
	RejectReservation(context.Context, *ReservationIDRequest) (*ReservationResponse, error)
	CancelReservation(context.Context, *ReservationIDRequest) (*ReservationResponse, error)
	UpdateReservationStatus(context.Context, *UpdateStatusRequest) (*ReservationResponse, error)
	ListReservationsMade(context.Context, *ListReservationsRequest) (*ListReservationsResponse, error)
	ListReservationsReceived(context.Context, *ListReservationsRequest) (*ListReservationsResponse, error)
	GetDashboard(context.Context, *DashboardRequest) (*DashboardResponse, error)
	GetAdminMetrics(context.Context, *AdminMetricsRequest) (*AdminMetricsResponse, error)
	CheckAvailability(context.Context, *CheckAvailabilityRequest) (*CheckAvailabilityResponse, error)
}

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary собирает MethodDesc так же, как это делает protoc-gen-go-grpc.
func unary[Req, Resp any](
	name string,
	call func(ReservationServiceServer, context.Context, *Req) (*Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ReservationServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ReservationServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ReservationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReservationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateReservation", ReservationServiceServer.CreateReservation),
		unary("GetReservation", ReservationServiceServer.GetReservation),
		unary("ConfirmReservation", ReservationServiceServer.ConfirmReservation),
		unary("RejectReservation", ReservationServiceServer.RejectReservation),
		unary("CancelReservation", ReservationServiceServer.CancelReservation),
		unary("UpdateReservationStatus", ReservationServiceServer.UpdateReservationStatus),
		unary("ListReservationsMade", ReservationServiceServer.ListReservationsMade),
		unary("ListReservationsReceived", ReservationServiceServer.ListReservationsReceived),
		unary("GetDashboard", ReservationServiceServer.GetDashboard),
		unary("GetAdminMetrics", ReservationServiceServer.GetAdminMetrics),
		unary("CheckAvailability", ReservationServiceServer.CheckAvailability),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "reservation/v1/reservation.proto",
}

func RegisterReservationServiceServer(s grpc.ServiceRegistrar, srv ReservationServiceServer) {
	s.RegisterService(&ReservationService_ServiceDesc, srv)
}

// ReservationServiceClient — клиент API бронирования (JSON-кодек).
type ReservationServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewReservationServiceClient(cc grpc.ClientConnInterface) *ReservationServiceClient {
	return &ReservationServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, c *ReservationServiceClient, name string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, fullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ReservationServiceClient) CreateReservation(ctx context.Context, in *CreateReservationRequest, opts ...grpc.CallOption) (*ReservationResponse, error) {
	return invoke[ReservationResponse](ctx, c, "CreateReservation", in, opts)
}

func (c *ReservationServiceClient) GetReservation(ctx context.Context, in *ReservationIDRequest, opts ...grpc.CallOption) (*ReservationResponse, error) {
	return invoke[ReservationResponse](ctx, c, "GetReservation", in, opts)
}

func (c *ReservationServiceClient) ConfirmReservation(ctx context.Context, in *ReservationIDRequest, opts ...grpc.CallOption) (*ReservationResponse, error) {
	return invoke[ReservationResponse](ctx, c, "ConfirmReservation", in, opts)
}

func (c *ReservationServiceClient) RejectReservation(ctx context.Context, in *ReservationIDRequest, opts ...grpc.CallOption) (*ReservationResponse, error) {
	return invoke[ReservationResponse](ctx, c, "RejectReservation", in, opts)
}

func (c *ReservationServiceClient) CancelReservation(ctx context.Context, in *ReservationIDRequest, opts ...grpc.CallOption) (*ReservationResponse, error) {
	return invoke[ReservationResponse](ctx, c, "CancelReservation", in, opts)
}

func (c *ReservationServiceClient) UpdateReservationStatus(ctx context.Context, in *UpdateStatusRequest, opts ...grpc.CallOption) (*ReservationResponse, error) {
	return invoke[ReservationResponse](ctx, c, "UpdateReservationStatus", in, opts)
}

func (c *ReservationServiceClient) ListReservationsMade(ctx context.Context, in *ListReservationsRequest, opts ...grpc.CallOption) (*ListReservationsResponse, error) {
	return invoke[ListReservationsResponse](ctx, c, "ListReservationsMade", in, opts)
}

func (c *ReservationServiceClient) ListReservationsReceived(ctx context.Context, in *ListReservationsRequest, opts ...grpc.CallOption) (*ListReservationsResponse, error) {
	return invoke[ListReservationsResponse](ctx, c, "ListReservationsReceived", in, opts)
}

func (c *ReservationServiceClient) GetDashboard(ctx context.Context, in *DashboardRequest, opts ...grpc.CallOption) (*DashboardResponse, error) {
	return invoke[DashboardResponse](ctx, c, "GetDashboard", in, opts)
}

func (c *ReservationServiceClient) GetAdminMetrics(ctx context.Context, in *AdminMetricsRequest, opts ...grpc.CallOption) (*AdminMetricsResponse, error) {
	return invoke[AdminMetricsResponse](ctx, c, "GetAdminMetrics", in, opts)
}

func (c *ReservationServiceClient) CheckAvailability(ctx context.Context, in *CheckAvailabilityRequest, opts ...grpc.CallOption) (*CheckAvailabilityResponse, error) {
	return invoke[CheckAvailabilityResponse](ctx, c, "CheckAvailability", in, opts)
}
