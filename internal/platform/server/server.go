package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	applog "github.com/ogurasousui/org-directory/internal/platform/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName は組織ディレクトリのヘルスチェック用サービス名です。
const ServiceName = "orgdirectory.v1.Directory"

// ProbeFunc はバックエンドの疎通確認を行います。nil を返せば SERVING とみなします。
type ProbeFunc func(ctx context.Context) error

// Server は gRPC サーバーのライフサイクルを管理します。
type Server struct {
	listenAddr string
	grpcServer *grpc.Server
	health     *health.Server
	probe      ProbeFunc
	interval   time.Duration
	logger     *zap.Logger
}

// New は指定されたアドレスで待ち受け、標準の grpc.health.v1.Health を公開する gRPC サーバーを構築します。
func New(listenAddr string, probe ProbeFunc, interval time.Duration, logger *zap.Logger, opts ...grpc.ServerOption) *Server {
	srv := grpc.NewServer(opts...)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return &Server{
		listenAddr: listenAddr,
		grpcServer: srv,
		health:     hs,
		probe:      probe,
		interval:   interval,
		logger:     applog.OrNop(logger).Named("server"),
	}
}

// Check は probe を一度実行し、結果をヘルスステータスへ反映します。
func (s *Server) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if s.probe == nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	} else if err := s.probe(ctx); err != nil {
		s.logger.Warn("health probe failed", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Run はサーバーを起動し、コンテキストがキャンセルされると GracefulStop します。
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(ctx, lis)
}

// Serve は与えられた Listener で待ち受けます。
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.Check(ctx)

	go s.watch(ctx)
	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))

	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("serve gRPC: %w", err)
	}

	return nil
}

func (s *Server) watch(ctx context.Context) {
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// GracefulStop はヘルスステータスを NOT_SERVING にしてからサーバーを安全に停止します。
func (s *Server) GracefulStop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
