// Package handlers provides the HTTP and gRPC servers of the service,
// bridging the transport layer and the company and statistics services.
package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Idanushka/CovidApts/internal/covidapts/auth"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// RouteRegistrar binds a group of HTTP routes to the gateway mux.
type RouteRegistrar interface {
	RegisterRoutes(mux *runtime.ServeMux) error
}

// AccessRules lists the routes that need an authenticated caller and the
// roles allowed on them. Every other route is public.
func AccessRules() []auth.Rule {
	return []auth.Rule{
		{Path: "/companies", Roles: auth.CompanyRoles},
		{Path: "/companies/create", Roles: auth.CompanyRoles},
		{Path: "/companies/details/", Roles: auth.CompanyRoles},
		{Path: "/companies/edit/", Roles: auth.CompanyRoles},
		{Path: "/companies/delete/", Roles: auth.CompanyRoles},
		{Path: "/statistics", Roles: []auth.Role{auth.RoleAdmin}},
	}
}

// Server holds references to both a gRPC server and an HTTP server.
type Server struct {
	grpcServer   *grpc.Server
	healthServer *health.Server
	httpServer   *http.Server
	mux          *runtime.ServeMux
	logger       *zap.Logger
	grpcEndpoint string
	httpEndpoint string
}

// NewServer constructs a Server with separate endpoints for gRPC and HTTP.
// The gRPC server exposes the standard health service.
func NewServer(
	grpcPort int,
	httpPort int,
	logger *zap.Logger,
	grpcOpts ...grpc.ServerOption,
) *Server {
	grpcServer := grpc.NewServer(grpcOpts...)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &Server{
		grpcServer:   grpcServer,
		healthServer: healthServer,
		httpServer:   &http.Server{ReadHeaderTimeout: 10 * time.Second},
		mux:          runtime.NewServeMux(runtime.WithDisablePathLengthFallback()),
		logger:       logger,
		grpcEndpoint: fmt.Sprintf(":%d", grpcPort),
		httpEndpoint: fmt.Sprintf(":%d", httpPort),
	}
}

// RegisterHTTPGateway binds the given routes and wraps the mux with request
// logging and role checks.
func (s *Server) RegisterHTTPGateway(jwtSecret string, registrars ...RouteRegistrar) error {
	for _, reg := range registrars {
		if err := reg.RegisterRoutes(s.mux); err != nil {
			return fmt.Errorf("register routes: %w", err)
		}
	}

	authMiddleware := auth.NewMiddleware(jwtSecret, s.logger, AccessRules()...)

	s.httpServer.Handler = withRequestLogging(s.logger.Named("http"), authMiddleware.Wrap(s.mux))
	s.httpServer.Addr = s.httpEndpoint
	return nil
}

// Handler returns the HTTP handler chain set up by RegisterHTTPGateway.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start runs the gRPC and HTTP servers concurrently, returning on the first error.
func (s *Server) Start() error {
	var wg sync.WaitGroup
	wg.Add(2)
	errChan := make(chan error, 2)

	s.healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Start gRPC Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting gRPC server", zap.String("endpoint", s.grpcEndpoint))
		lis, err := net.Listen("tcp", s.grpcEndpoint)
		if err != nil {
			errChan <- fmt.Errorf("gRPC listen error: %w", err)
			return
		}
		if err := s.grpcServer.Serve(lis); err != nil {
			errChan <- fmt.Errorf("gRPC serve error: %w", err)
		}
	}()

	// Start HTTP Server
	go func() {
		defer wg.Done()
		s.logger.Info("Starting HTTP server", zap.String("endpoint", s.httpEndpoint))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP serve error: %w", err)
		}
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}

// Stop marks the service as not serving and gracefully shuts down both servers.
func (s *Server) Stop() {
	s.logger.Info("Shutting down servers...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.healthServer.Shutdown()
	s.grpcServer.GracefulStop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	s.logger.Info("Servers stopped")
}
