// Package grpc exposes the standard gRPC health service so orchestrators can
// probe the catalog without going through the public HTTP API.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/mygardenbook/gardenbook/internal/dbx"
	"github.com/mygardenbook/gardenbook/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// CatalogService is the service name reported alongside the overall ("") status.
const CatalogService = "gardenbook.Catalog"

const (
	defaultProbeInterval = 15 * time.Second
	probeTimeout         = 3 * time.Second
)

type HealthServer struct {
	address  string
	db       dbx.Pinger
	interval time.Duration
	logger   logging.Logger
	health   *health.Server
}

// NewHealthServer returns a server whose status follows db reachability.
// A non-positive interval selects the default.
func NewHealthServer(address string, l logging.Logger, db dbx.Pinger, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	return &HealthServer{
		address:  address,
		db:       db,
		interval: interval,
		logger:   l.With("module", "grpc_server"),
		health:   health.NewServer(),
	}
}

// probe pings the database once and publishes the result.
func (s *HealthServer) probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	st := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(pingCtx); err != nil {
		s.logger.Warn(ctx, "database probe failed", "error", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(CatalogService, st)
	return st
}

func (s *HealthServer) watch(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.probe(ctx)
		}
	}
}

func (s *HealthServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.recoverInterceptor, s.loggingInterceptor))
	healthpb.RegisterHealthServer(srv, s.health)
	return srv
}

// Run listens on the configured address until ctx is cancelled.
func (s *HealthServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *HealthServer) serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()

	s.probe(ctx)
	go s.watch(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}
	return nil
}
