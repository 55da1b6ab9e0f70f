package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/salesorder/internal/config"
	"github.com/Additional-Code/salesorder/pkg/errorbank"
)

// Module exposes the gRPC server and lifecycle hooks to Fx.
var Module = fx.Module("grpc_server",
	fx.Provide(NewServer, NewHealth),
	fx.Invoke(Run),
)

// NewServer builds a traced gRPC server with logging interceptors. Application
// errors returned by handlers are translated to their gRPC status codes.
func NewServer(logger *zap.Logger) *grpc.Server {
	unary := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		err = toStatus(err)
		logCall(logger, "grpc unary call finished", info.FullMethod, time.Since(start), err)
		return resp, err
	}

	stream := func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		err := toStatus(handler(srv, ss))
		logCall(logger, "grpc stream call finished", info.FullMethod, time.Since(start), err)
		return err
	}

	return grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unary),
		grpc.ChainStreamInterceptor(stream),
	)
}

// NewHealth registers the standard health service on server. The overall
// status and the salesorder service start out serving.
func NewHealth(server *grpc.Server, cfg config.Config) *health.Server {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(cfg.Observability.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
	return hs
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var appErr *errorbank.AppError
	if errors.As(err, &appErr) {
		return status.Error(appErr.GRPCCode(), appErr.Message())
	}
	return err
}

func logCall(logger *zap.Logger, msg, method string, duration time.Duration, err error) {
	fields := []zap.Field{zap.String("method", method), zap.Duration("duration", duration)}
	if err != nil {
		logger.Warn(msg, append(fields, zap.Error(err))...)
		return
	}
	logger.Debug(msg, fields...)
}

// Run binds the gRPC server to the configured host/port and manages lifecycle.
// Nothing is started when gRPC is disabled.
func Run(lc fx.Lifecycle, cfg config.Config, server *grpc.Server, hs *health.Server, logger *zap.Logger) {
	if !cfg.GRPC.Enabled {
		logger.Info("gRPC server disabled")
		return
	}

	addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
	var listener net.Listener

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen grpc: %w", err)
			}
			listener = ln
			logger.Info("starting gRPC server", zap.String("addr", addr))
			go func() {
				if err := server.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
					logger.Fatal("grpc server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping gRPC server")
			hs.Shutdown()
			stopped := make(chan struct{})
			go func() {
				server.GracefulStop()
				close(stopped)
			}()

			select {
			case <-ctx.Done():
				server.Stop()
				return ctx.Err()
			case <-stopped:
				if listener != nil {
					_ = listener.Close()
				}
				return nil
			}
		},
	})
}
