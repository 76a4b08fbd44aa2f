package logger

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "datalogger.v1.LoggerService"

// Full method names.
const (
	GetStatusMethod    = "/" + ServiceName + "/GetStatus"
	StartSessionMethod = "/" + ServiceName + "/StartSession"
	StopSessionMethod  = "/" + ServiceName + "/StopSession"
	SetFieldMethod     = "/" + ServiceName + "/SetField"
)

// LoggerServiceServer is the server API of the logger service.
type LoggerServiceServer interface {
	GetStatus(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	StartSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	StopSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetField(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the logger service for grpc.Server.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LoggerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetStatus",
			Handler:    unaryHandler(GetStatusMethod, LoggerServiceServer.GetStatus),
		},
		{
			MethodName: "StartSession",
			Handler:    unaryHandler(StartSessionMethod, LoggerServiceServer.StartSession),
		},
		{
			MethodName: "StopSession",
			Handler:    unaryHandler(StopSessionMethod, LoggerServiceServer.StopSession),
		},
		{
			MethodName: "SetField",
			Handler:    unaryHandler(SetFieldMethod, LoggerServiceServer.SetField),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "datalogger/v1/logger.proto",
}

// RegisterLoggerServiceServer registers the service implementation with a gRPC server.
func RegisterLoggerServiceServer(s grpc.ServiceRegistrar, srv LoggerServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to a grpc.MethodHandler.
func unaryHandler[Req any, PReq interface {
	*Req
}](
	fullMethod string,
	call func(LoggerServiceServer, context.Context, PReq) (*structpb.Struct, error),
) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}

		if interceptor == nil {
			return call(srv.(LoggerServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(LoggerServiceServer), ctx, req.(PReq))
		}

		return interceptor(ctx, in, info, handler)
	}
}
