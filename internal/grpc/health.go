package grpc

import (
	"net"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"tracker-service/internal/observability"
)

// HealthServer serves grpc.health.v1.Health for the tracker service.
type HealthServer struct {
	server  *grpc.Server
	health  *health.Server
	service string
	logger  zerolog.Logger
}

// NewHealthServer builds a gRPC server that reports NOT_SERVING until SetServing(true).
func NewHealthServer(service string, logger zerolog.Logger) *HealthServer {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(observability.GRPCServerMetricsUnaryInterceptor()),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	h := &HealthServer{
		server:  srv,
		health:  hs,
		service: service,
		logger:  logger.With().Str("component", "grpc_health").Logger(),
	}
	h.SetServing(false)
	return h
}

// SetServing updates both the overall and the named service status.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(h.service, status)
}

// Serve blocks until the listener fails or Stop is called.
func (h *HealthServer) Serve(lis net.Listener) error {
	h.logger.Info().Str("addr", lis.Addr().String()).Msg("grpc health listening")
	return h.server.Serve(lis)
}

func (h *HealthServer) Stop() {
	h.SetServing(false)
	h.health.Shutdown()
	h.server.GracefulStop()
}
