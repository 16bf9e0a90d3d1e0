// Hand-authored in the shape protoc-gen-go-grpc would produce, since no
// .proto is supplied to generate from: the same service-desc/handler-table
// layout, extended for a bidi-streaming method.
package protocol

import (
	"context"

	"google.golang.org/grpc"
)

const _ = grpc.SupportPackageIsVersion6

// StreamServiceClient is the client API for the chainstream.v1.StreamService
// service.
type StreamServiceClient interface {
	StreamData(ctx context.Context, opts ...grpc.CallOption) (StreamService_StreamDataClient, error)
}

type streamServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewStreamServiceClient(cc grpc.ClientConnInterface) StreamServiceClient {
	return &streamServiceClient{cc}
}

func (c *streamServiceClient) StreamData(ctx context.Context, opts ...grpc.CallOption) (StreamService_StreamDataClient, error) {
	stream, err := c.cc.NewStream(ctx, &_StreamService_serviceDesc.Streams[0], "/chainstream.v1.StreamService/StreamData", opts...)
	if err != nil {
		return nil, err
	}
	return &streamServiceStreamDataClient{stream}, nil
}

// StreamService_StreamDataClient is the client's half of the bidi stream:
// Send pushes StreamDataRequests, Recv pulls StreamDataResponses.
type StreamService_StreamDataClient interface {
	Send(*StreamDataRequest) error
	Recv() (*StreamDataResponse, error)
	CloseSend() error
}

type streamServiceStreamDataClient struct {
	grpc.ClientStream
}

func (x *streamServiceStreamDataClient) Send(m *StreamDataRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *streamServiceStreamDataClient) Recv() (*StreamDataResponse, error) {
	m := new(StreamDataResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

// StreamServiceServer is the server API for StreamService.
type StreamServiceServer interface {
	StreamData(StreamService_StreamDataServer) error
	mustEmbedUnimplementedStreamServiceServer()
}

// UnimplementedStreamServiceServer must be embedded for forward
// compatibility.
type UnimplementedStreamServiceServer struct{}

func (*UnimplementedStreamServiceServer) StreamData(StreamService_StreamDataServer) error {
	return grpcUnimplemented("StreamData")
}
func (*UnimplementedStreamServiceServer) mustEmbedUnimplementedStreamServiceServer() {}

// StreamService_StreamDataServer is the server's half of the bidi stream.
type StreamService_StreamDataServer interface {
	Send(*StreamDataResponse) error
	Recv() (*StreamDataRequest, error)
	grpc.ServerStream
}

type streamServiceStreamDataServer struct {
	grpc.ServerStream
}

func (x *streamServiceStreamDataServer) Send(m *StreamDataResponse) error {
	return x.ServerStream.SendMsg(m)
}

func (x *streamServiceStreamDataServer) Recv() (*StreamDataRequest, error) {
	m := new(StreamDataRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func RegisterStreamServiceServer(s *grpc.Server, srv StreamServiceServer) {
	s.RegisterService(&_StreamService_serviceDesc, srv)
}

func _StreamService_StreamData_Handler(srv interface{}, stream grpc.ServerStream) error {
	return srv.(StreamServiceServer).StreamData(&streamServiceStreamDataServer{stream})
}

var _StreamService_serviceDesc = grpc.ServiceDesc{
	ServiceName: "chainstream.v1.StreamService",
	HandlerType: (*StreamServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamData",
			Handler:       _StreamService_StreamData_Handler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "chainstream/v1/stream.proto",
}
