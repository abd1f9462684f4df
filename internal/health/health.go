package health

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Check is a named dependency probe; its name doubles as the gRPC health
// service name.
type Check struct {
	Name  string
	Check func(context.Context) error
}

type Server struct {
	grpc   *grpc.Server
	health *grpchealth.Server
	checks []Check
	every  time.Duration
	log    *slog.Logger

	mu      sync.Mutex
	serving bool
}

func NewServer(log *slog.Logger, every time.Duration, checks ...Check) *Server {
	if every <= 0 {
		every = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	gs := grpc.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	s := &Server{
		grpc:   gs,
		health: hs,
		checks: checks,
		every:  every,
		log:    log.With("component", "health"),
	}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Run probes the checks immediately and then every interval until ctx is done.
func (s *Server) Run(ctx context.Context) {
	s.Probe(ctx)

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Probe(ctx)
		}
	}
}

// Probe runs every check once and publishes the result. The overall ("")
// service is serving only when all checks pass.
func (s *Server) Probe(ctx context.Context) bool {
	ok := true
	for _, c := range s.checks {
		cctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := c.Check(cctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			ok = false
			status = healthpb.HealthCheckResponse_NOT_SERVING
			s.log.Warn("dependency unhealthy", "check", c.Name, "err", err)
		}
		s.health.SetServingStatus(c.Name, status)
	}

	overall := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		overall = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", overall)

	s.mu.Lock()
	if s.serving != ok {
		s.log.Info("health changed", "serving", ok)
	}
	s.serving = ok
	s.mu.Unlock()
	return ok
}

func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpc.GracefulStop()
}
