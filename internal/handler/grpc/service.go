package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Fully qualified gRPC names of the geolocation service.
const (
	ServiceName           = "geolocation.v1.GeolocationService"
	LookupFullMethod      = "/" + ServiceName + "/Lookup"
	LookupBatchFullMethod = "/" + ServiceName + "/LookupBatch"
)

// GeolocationServiceServer is the server API of the geolocation service.
// Messages are protobuf well-known types: the responses carry the same JSON
// documents the HTTP endpoints return.
type GeolocationServiceServer interface {
	// Lookup geolocates the given address, or the caller's address when empty.
	Lookup(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	// LookupBatch geolocates a list of address strings.
	LookupBatch(context.Context, *structpb.ListValue) (*structpb.Struct, error)
}

// RegisterGeolocationServiceServer registers srv with s.
func RegisterGeolocationServiceServer(s grpc.ServiceRegistrar, srv GeolocationServiceServer) {
	s.RegisterService(&GeolocationServiceDesc, srv)
}

func lookupHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GeolocationServiceServer).Lookup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LookupFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GeolocationServiceServer).Lookup(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func lookupBatchHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.ListValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(GeolocationServiceServer).LookupBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: LookupBatchFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(GeolocationServiceServer).LookupBatch(ctx, req.(*structpb.ListValue))
	}
	return interceptor(ctx, in, info, handler)
}

// GeolocationServiceDesc describes the geolocation service for grpc.Server.
var GeolocationServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*GeolocationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Lookup", Handler: lookupHandler},
		{MethodName: "LookupBatch", Handler: lookupBatchHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "geolocation/v1/geolocation.proto",
}
