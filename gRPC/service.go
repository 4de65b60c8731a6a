package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is declared by hand over well-known types, so no generated
// code is needed:
//
//	service Classifier {
//	  rpc Classify(google.protobuf.BytesValue) returns (google.protobuf.Struct);
//	  rpc Labels(google.protobuf.Empty) returns (google.protobuf.ListValue);
//	  rpc Status(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
const (
	ServiceName                        = "frameclassifier.v1.Classifier"
	Classifier_Classify_FullMethodName = "/" + ServiceName + "/Classify"
	Classifier_Labels_FullMethodName   = "/" + ServiceName + "/Labels"
	Classifier_Status_FullMethodName   = "/" + ServiceName + "/Status"
)

type ClassifierServer interface {
	Classify(context.Context, *wrapperspb.BytesValue) (*structpb.Struct, error)
	Labels(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func RegisterClassifierServer(s grpc.ServiceRegistrar, srv ClassifierServer) {
	s.RegisterService(&Classifier_ServiceDesc, srv)
}

func _Classifier_Classify_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierServer).Classify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Classifier_Classify_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClassifierServer).Classify(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Classifier_Labels_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierServer).Labels(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Classifier_Labels_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClassifierServer).Labels(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Classifier_Status_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: Classifier_Status_FullMethodName}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClassifierServer).Status(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var Classifier_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClassifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Classify", Handler: _Classifier_Classify_Handler},
		{MethodName: "Labels", Handler: _Classifier_Labels_Handler},
		{MethodName: "Status", Handler: _Classifier_Status_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "frameclassifier.proto",
}

type ClassifierClient struct {
	cc grpc.ClientConnInterface
}

func NewClassifierClient(cc grpc.ClientConnInterface) *ClassifierClient {
	return &ClassifierClient{cc: cc}
}

func (c *ClassifierClient) Classify(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Classifier_Classify_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClassifierClient) Labels(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.ListValue, error) {
	out := new(structpb.ListValue)
	if err := c.cc.Invoke(ctx, Classifier_Labels_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ClassifierClient) Status(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, Classifier_Status_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
