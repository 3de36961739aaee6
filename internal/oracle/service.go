package oracle

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the gRPC service exposing a Runtime over the network.
// Messages are well-known protobuf types so no generated code is needed.
const ServiceName = "simopt.oracle.v1.OracleService"

const (
	methodArity           = "Arity"
	methodConfigureStatic = "ConfigureStatic"
	methodSetup           = "Setup"
	methodRun             = "Run"
	methodOutput          = "Output"
	methodReset           = "Reset"
)

// FullMethod returns the fully qualified gRPC method name
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ServiceServer is the server side of the oracle service
type ServiceServer interface {
	Arity(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	ConfigureStatic(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Setup(context.Context, *structpb.ListValue) (*emptypb.Empty, error)
	Run(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
	Output(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Reset(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// RegisterServiceServer registers srv on s
func RegisterServiceServer(s grpc.ServiceRegistrar, srv ServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: methodArity, Handler: unaryHandler[emptypb.Empty](methodArity, ServiceServer.Arity)},
		{MethodName: methodConfigureStatic, Handler: unaryHandler[structpb.Struct](methodConfigureStatic, ServiceServer.ConfigureStatic)},
		{MethodName: methodSetup, Handler: unaryHandler[structpb.ListValue](methodSetup, ServiceServer.Setup)},
		{MethodName: methodRun, Handler: unaryHandler[emptypb.Empty](methodRun, ServiceServer.Run)},
		{MethodName: methodOutput, Handler: unaryHandler[emptypb.Empty](methodOutput, ServiceServer.Output)},
		{MethodName: methodReset, Handler: unaryHandler[emptypb.Empty](methodReset, ServiceServer.Reset)},
	},
	Metadata: "simopt/oracle/v1/oracle.proto",
}

func unaryHandler[Req any, PReq interface {
	*Req
	proto.Message
}, Resp proto.Message](method string, call func(ServiceServer, context.Context, PReq) (Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(ServiceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(PReq))
		})
	}
}

// ValuesToStruct encodes numeric fields as a protobuf Struct
func ValuesToStruct(v map[string]float64) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(v))
	for k, x := range v {
		fields[k] = structpb.NewNumberValue(x)
	}
	return &structpb.Struct{Fields: fields}
}

// StructToValues decodes the numeric fields of a protobuf Struct; other kinds are skipped
func StructToValues(s *structpb.Struct) Values {
	out := make(Values, len(s.GetFields()))
	for k, v := range s.GetFields() {
		if n, ok := v.GetKind().(*structpb.Value_NumberValue); ok {
			out[k] = n.NumberValue
		}
	}
	return out
}

// FloatsToList encodes positional inputs
func FloatsToList(x []float64) *structpb.ListValue {
	values := make([]*structpb.Value, len(x))
	for i, v := range x {
		values[i] = structpb.NewNumberValue(v)
	}
	return &structpb.ListValue{Values: values}
}

// ListToFloats decodes positional inputs; a non-numeric element fails
func ListToFloats(l *structpb.ListValue) ([]float64, bool) {
	out := make([]float64, len(l.GetValues()))
	for i, v := range l.GetValues() {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return nil, false
		}
		out[i] = n.NumberValue
	}
	return out, true
}
