package grpc

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type switchPinger struct {
	down atomic.Bool
}

func (p *switchPinger) PingContext(context.Context) error {
	if p.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func startBuf(t *testing.T, s *HealthServer) (healthpb.HealthClient, context.CancelFunc, <-chan error) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn), cancel, done
}

func statusOf(c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	rsp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN
	}
	return rsp.GetStatus()
}

func TestHealth_FollowsDatabase(t *testing.T) {
	db := &switchPinger{}
	s := NewHealthServer("", logging.Nop{}, db, 20*time.Millisecond)
	c, cancel, done := startBuf(t, s)
	defer cancel()

	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, statusOf(c, ""))
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, statusOf(c, CatalogService))

	db.down.Store(true)
	assert.Eventually(t, func() bool {
		return statusOf(c, CatalogService) == healthpb.HealthCheckResponse_NOT_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	db.down.Store(false)
	assert.Eventually(t, func() bool {
		return statusOf(c, "") == healthpb.HealthCheckResponse_SERVING
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestProbe_PublishesStatus(t *testing.T) {
	db := &switchPinger{}
	db.down.Store(true)
	s := NewHealthServer("", logging.Nop{}, db, 0)
	assert.Equal(t, defaultProbeInterval, s.interval)

	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, s.probe(context.Background()))
	rsp, err := s.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: CatalogService})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, rsp.GetStatus())
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	s := NewHealthServer("127.0.0.1:99999", logging.Nop{}, &switchPinger{}, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, s.Run(ctx))
}
