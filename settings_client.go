package drivershim

import (
	"context"
	"fmt"
	"time"

	hostrpc "github.com/hmdtools/drivershim/hostrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// HostSettingsClient is a SettingsStore backed by a host running in another
// process, reached over the internal settings service.
type HostSettingsClient struct {
	cc      *grpc.ClientConn
	c       hostrpc.SettingsServiceClient
	timeout time.Duration
	logger  Logger
}

// DialHostSettings connects to the host settings service.
func DialHostSettings(addr string, logger Logger) (*HostSettingsClient, error) {
	// addr format: unix:////tmp/shim-host.sock
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewNopLogger()
	}
	return &HostSettingsClient{
		cc:      conn,
		c:       hostrpc.NewSettingsServiceClient(conn),
		timeout: 2 * time.Second,
		logger:  logger,
	}, nil
}

func (h *HostSettingsClient) Close() error { return h.cc.Close() }

// GetFloat reads one settings key from the host. A failed read returns 0,
// matching the no-validation contract for configuration values.
func (h *HostSettingsClient) GetFloat(section, key string) float64 {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	resp, err := h.c.GetFloat(ctx, &hostrpc.GetFloatRequest{Section: section, Key: key})
	if err != nil {
		h.logger.Debug("settings read failed", "section", section, "key", key, "err", err.Error())
		return 0
	}
	return resp.Value
}

// WatchChanges streams the host's settings-change notifications into the
// event queue until the context is cancelled or the stream breaks.
func (h *HostSettingsClient) WatchChanges(ctx context.Context, section string, queue *EventQueue) error {
	stream, err := h.c.WatchChanges(ctx, &hostrpc.WatchChangesRequest{Section: section})
	if err != nil {
		return err
	}
	for {
		change, err := stream.Recv()
		if err != nil {
			return err
		}
		queue.Post(Event{
			Type:        EventSettingsChanged,
			DeviceIndex: InvalidDeviceIndex,
			TSUnixMs:    change.TSUnixMs,
		})
	}
}

// RequireHostAddrFromEnv resolves the settings service address from the
// environment.
func RequireHostAddrFromEnv(getenv func(string) string) (string, error) {
	addr := getenv("SHIM_HOST_GRPC_ADDR")
	if addr == "" {
		return "", fmt.Errorf("SHIM_HOST_GRPC_ADDR is required")
	}
	return addr, nil
}
