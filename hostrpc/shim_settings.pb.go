package hostrpc

import (
	"context"

	"google.golang.org/grpc"
)

// This file is intentionally handwritten to avoid protoc in the minimal
// reference. It defines a tiny internal gRPC contract for a shim running in a
// separate process to read host settings and watch for changes.

type GetFloatRequest struct {
	Section string
	Key     string
}

type GetFloatResponse struct {
	Value float64
}

type WatchChangesRequest struct {
	Section string
}

type SettingsChange struct {
	Section  string
	TSUnixMs int64
}

// SettingsService: called by the shim (client) -> driver host (server).
type SettingsServiceClient interface {
	GetFloat(ctx context.Context, in *GetFloatRequest, opts ...grpc.CallOption) (*GetFloatResponse, error)
	WatchChanges(ctx context.Context, in *WatchChangesRequest, opts ...grpc.CallOption) (SettingsService_WatchChangesClient, error)
}

type settingsServiceClient struct{ cc grpc.ClientConnInterface }

func NewSettingsServiceClient(cc grpc.ClientConnInterface) SettingsServiceClient {
	return &settingsServiceClient{cc}
}

func (c *settingsServiceClient) GetFloat(ctx context.Context, in *GetFloatRequest, opts ...grpc.CallOption) (*GetFloatResponse, error) {
	out := new(GetFloatResponse)
	err := c.cc.Invoke(ctx, "/shim.internal.SettingsService/GetFloat", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *settingsServiceClient) WatchChanges(ctx context.Context, in *WatchChangesRequest, opts ...grpc.CallOption) (SettingsService_WatchChangesClient, error) {
	stream, err := c.cc.NewStream(ctx, &grpc.StreamDesc{
		StreamName:    "WatchChanges",
		ServerStreams: true,
	}, "/shim.internal.SettingsService/WatchChanges", opts...)
	if err != nil {
		return nil, err
	}
	x := &settingsServiceWatchChangesClient{stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

type SettingsService_WatchChangesClient interface {
	Recv() (*SettingsChange, error)
	grpc.ClientStream
}

type settingsServiceWatchChangesClient struct{ grpc.ClientStream }

func (x *settingsServiceWatchChangesClient) Recv() (*SettingsChange, error) {
	m := new(SettingsChange)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

type SettingsServiceServer interface {
	GetFloat(context.Context, *GetFloatRequest) (*GetFloatResponse, error)
	WatchChanges(*WatchChangesRequest, SettingsService_WatchChangesServer) error
	mustEmbedUnimplementedSettingsServiceServer()
}

type UnimplementedSettingsServiceServer struct{}

func (UnimplementedSettingsServiceServer) GetFloat(context.Context, *GetFloatRequest) (*GetFloatResponse, error) {
	return &GetFloatResponse{}, nil
}
func (UnimplementedSettingsServiceServer) WatchChanges(*WatchChangesRequest, SettingsService_WatchChangesServer) error {
	return nil
}
func (UnimplementedSettingsServiceServer) mustEmbedUnimplementedSettingsServiceServer() {}

type SettingsService_WatchChangesServer interface {
	Send(*SettingsChange) error
	grpc.ServerStream
}

type settingsServiceWatchChangesServer struct{ grpc.ServerStream }

func (x *settingsServiceWatchChangesServer) Send(m *SettingsChange) error {
	return x.ServerStream.SendMsg(m)
}

func RegisterSettingsServiceServer(s grpc.ServiceRegistrar, srv SettingsServiceServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "shim.internal.SettingsService",
		HandlerType: (*SettingsServiceServer)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetFloat",
				Handler: func(_ interface{}, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
					in := new(GetFloatRequest)
					if err := dec(in); err != nil {
						return nil, err
					}
					return srv.GetFloat(ctx, in)
				},
			},
		},
		Streams: []grpc.StreamDesc{
			{
				StreamName: "WatchChanges",
				Handler: func(_ interface{}, stream grpc.ServerStream) error {
					in := new(WatchChangesRequest)
					if err := stream.RecvMsg(in); err != nil {
						return err
					}
					return srv.WatchChanges(in, &settingsServiceWatchChangesServer{stream})
				},
				ServerStreams: true,
			},
		},
		Metadata: "shim_settings.proto",
	}, srv)
}
