package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promgrpc "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/vladislavdragonenkov/bms/internal/health"
	"github.com/vladislavdragonenkov/bms/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/bms/internal/metrics"
	"github.com/vladislavdragonenkov/bms/internal/service/outbox"
	"github.com/vladislavdragonenkov/bms/internal/storage/memory"
	"github.com/vladislavdragonenkov/bms/internal/version"
)

const shutdownTimeout = 5 * time.Second

// App связывает хранилища, сервисы заказов, outbox worker и служебные серверы.
type App struct {
	cfg      Config
	logger   *log.Entry
	deps     *runtimeDependencies
	engine   *Engine
	producer *kafka.Producer
	worker   *outbox.Worker
	health   *health.Handler
}

// New открывает зависимости и собирает сервисы заказов. Вызывающий обязан вызвать Close.
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := log.WithField("component", "app")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	deps, err := initRuntimeDependencies(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	engine, err := NewEngine(deps.orderRepos, deps.catalog, deps.outboxRepo, metrics.NewOrderMetrics(), logger.WithField("layer", "orders"))
	if err != nil {
		deps.close(logger)
		return nil, err
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		engine: engine,
		health: health.NewHandler(version.Current().Version),
	}
	deps.registerProbes(a.health)

	// Без брокера сервис продолжает работать: события остаются в outbox до появления Kafka.
	if producer, err := initKafkaProducer(cfg.KafkaBrokers, logger); err == nil && producer != nil {
		a.producer = producer
		a.worker = newOutboxWorker(cfg, deps.outboxRepo, producer, logger)
	}

	return a, nil
}

// Engine возвращает сервисы заказов.
func (a *App) Engine() *Engine {
	return a.engine
}

// MemoryCatalog возвращает изменяемый каталог memory-драйвера; для postgres возвращает nil.
func (a *App) MemoryCatalog() *memory.CatalogStore {
	return a.deps.memoryCatalog
}

// Serve запускает gRPC, HTTP и outbox worker до отмены ctx или первой ошибки.
func (a *App) Serve(ctx context.Context) error {
	grpcServer, healthServer := newGRPCServer(a.logger)

	lis, err := net.Listen("tcp", a.cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	opsServer := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           newOpsMux(a.health),
		ReadHeaderTimeout: shutdownTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Infof("gRPC сервер слушает %s", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Infof("метрики и health checks доступны на %s", a.cfg.MetricsAddr)
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	if a.worker != nil {
		g.Go(func() error {
			return a.worker.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("получен сигнал остановки, останавливаем серверы")
		stopGRPC(grpcServer, healthServer, a.logger)
		shutdownHTTP(opsServer, a.logger)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Close освобождает соединения с брокером и хранилищами.
func (a *App) Close() {
	closeKafkaProducer(a.producer, a.logger)
	a.producer = nil
	a.deps.close(a.logger)
}

// Run собирает приложение и обслуживает запросы до отмены ctx.
func Run(ctx context.Context, cfg Config) error {
	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}

// newGRPCServer создаёт gRPC сервер со стандартным health-сервисом и reflection.
func newGRPCServer(logger *log.Entry) (*grpc.Server, *grpchealth.Server) {
	grpcMetrics := promgrpc.NewServerMetrics()
	if err := prometheus.Register(grpcMetrics); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*promgrpc.ServerMetrics); ok {
				grpcMetrics = existing
			}
		} else {
			logger.WithError(err).Warn("failed to register grpc metrics")
		}
	}

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(grpcMetrics.UnaryServerInterceptor()))

	healthServer := grpchealth.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	reflection.Register(grpcServer)
	grpcMetrics.InitializeMetrics(grpcServer)

	return grpcServer, healthServer
}

// stopGRPC останавливает сервер и прерывает соединения, если graceful stop не уложился в таймаут.
func stopGRPC(srv *grpc.Server, healthServer *grpchealth.Server, logger *log.Entry) {
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	stopped := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(shutdownTimeout):
		logger.Warn("graceful stop превысил таймаут, принудительно останавливаем")
		srv.Stop()
	}
}

// newOpsMux собирает HTTP-обработчики метрик и проб.
func newOpsMux(healthHandler *health.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	mux.HandleFunc("/livez", health.LivenessHandler)
	return mux
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
