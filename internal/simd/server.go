// Package simd serves an in-process oracle over gRPC and study status over HTTP.
package simd

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
)

// ShutdownTimeout bounds the graceful HTTP shutdown
const ShutdownTimeout = 10 * time.Second

// Listeners are the sockets Serve accepts on. A nil listener disables that server.
type Listeners struct {
	GRPC net.Listener
	HTTP net.Listener
}

// Server bundles the oracle service and the status router
type Server struct {
	Oracle *OracleServer
	Status *HTTPServer
	log    *slog.Logger
}

// NewServer wires the gRPC oracle service and the status router. Either may be nil.
func NewServer(o *OracleServer, h *HTTPServer, log *slog.Logger) *Server {
	return &Server{Oracle: o, Status: h, log: logger.OrDefault(log)}
}

// GRPCServer returns a grpc.Server with the oracle service registered
func (s *Server) GRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	srv := grpc.NewServer(opts...)
	oracle.RegisterServiceServer(srv, s.Oracle)
	return srv
}

// Serve runs both servers until ctx is done or one of them fails, then stops both
func (s *Server) Serve(ctx context.Context, lis Listeners) error {
	g, gctx := errgroup.WithContext(ctx)

	if lis.GRPC != nil && s.Oracle != nil {
		grpcSrv := s.GRPCServer()
		g.Go(func() error {
			s.log.Info("gRPC oracle service listening", "addr", lis.GRPC.Addr().String())
			if err := grpcSrv.Serve(lis.GRPC); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			grpcSrv.GracefulStop()
			return nil
		})
	}

	if lis.HTTP != nil && s.Status != nil {
		httpSrv := &http.Server{
			Handler:           s.Status.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		}
		g.Go(func() error {
			s.log.Info("HTTP status server listening", "addr", lis.HTTP.Addr().String())
			if err := httpSrv.Serve(lis.HTTP); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
			defer cancel()
			if err := httpSrv.Shutdown(shutdownCtx); err != nil {
				s.log.Error("HTTP shutdown error", "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if s.Oracle != nil {
		if cerr := s.Oracle.Close(); cerr != nil {
			s.log.Warn("failed to close served oracle", "error", cerr)
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
