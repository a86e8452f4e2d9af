package main

import (
	"context"
	"log/slog"
	"net"

	"github.com/md-rashed-zaman/appointmed/libs/config"
	"github.com/md-rashed-zaman/appointmed/libs/grpcx"
	"github.com/md-rashed-zaman/appointmed/libs/viewrpc"
	"github.com/md-rashed-zaman/appointmed/services/appointment-service/internal/grpcserver"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func startGrpcServer(ctx context.Context, logger *slog.Logger, appts grpcserver.Lister) error {
	port, err := config.Port("GRPC_PORT", "9091")
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	srv := grpcx.NewServer(logger)
	grpcserver.Register(srv, appts, nil)
	hs := health.NewServer()
	hs.SetServingStatus(viewrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		hs.Shutdown()
		srv.GracefulStop()
	}()

	return nil
}
