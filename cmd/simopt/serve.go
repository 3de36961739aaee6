package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/driver"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/journal"
	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/simd"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

func (a *app) serveCmd() *cobra.Command {
	var grpcAddr, httpAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the configured oracle over gRPC and study status over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if httpAddr == "" && a.cfg.Status.Addr != "" {
				httpAddr = a.cfg.Status.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, grpcAddr, httpAddr)
		},
	}
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", ":50061", "gRPC listen address of the oracle service")
	cmd.Flags().StringVar(&httpAddr, "http-addr", "", "HTTP listen address of the status server; disabled when empty")
	return cmd
}

func (a *app) serve(ctx context.Context, grpcAddr, httpAddr string) error {
	if a.cfg.Oracle.Kind == "remote" {
		return models.ConfigErrorf("oracle.kind", "a remote oracle cannot be served again")
	}
	factory, err := driver.DefaultRegistry().Lookup(a.cfg.Oracle.Kind)
	if err != nil {
		return err
	}
	rt, err := factory(ctx, a.cfg.Oracle)
	if err != nil {
		return fmt.Errorf("failed to start %s oracle: %w", a.cfg.Oracle.Kind, err)
	}
	oracleSrv := simd.NewOracleServer(rt, a.log.With("component", "oracle-server"))

	var lis simd.Listeners
	lis.GRPC, err = net.Listen("tcp", grpcAddr)
	if err != nil {
		_ = oracleSrv.Close()
		return fmt.Errorf("failed to listen for gRPC on %s: %w", grpcAddr, err)
	}

	var status *simd.HTTPServer
	if httpAddr != "" {
		store, err := journal.NewStore(ctx, a.cfg.Journal)
		if err != nil {
			_ = oracleSrv.Close()
			_ = lis.GRPC.Close()
			return err
		}
		defer store.Close()
		status = simd.NewHTTPServer(store, nil, a.log)
		lis.HTTP, err = net.Listen("tcp", httpAddr)
		if err != nil {
			_ = oracleSrv.Close()
			_ = lis.GRPC.Close()
			return fmt.Errorf("failed to listen for HTTP on %s: %w", httpAddr, err)
		}
	}

	err = simd.NewServer(oracleSrv, status, a.log).Serve(ctx, lis)
	a.log.Info("oracle service stopped", "runs", oracleSrv.Calls())
	return err
}
