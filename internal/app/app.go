package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	v1 "github.com/godilite/eval-server/api/v1"
	"github.com/godilite/eval-server/internal/approval"
	"github.com/godilite/eval-server/internal/auth"
	"github.com/godilite/eval-server/internal/config"
	handler "github.com/godilite/eval-server/internal/grpc"
	"github.com/godilite/eval-server/internal/notify"
	"github.com/godilite/eval-server/internal/repository"
	"github.com/godilite/eval-server/internal/service"
	"github.com/godilite/eval-server/pkg/cache"
	dbbuilder "github.com/godilite/eval-server/pkg/database"
	grpcsrv "github.com/godilite/eval-server/pkg/grpc/server"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	db         *sqlx.DB
	cache      *cache.Cache
	grpcServer *grpcsrv.Server
	httpServer *http.Server
}

// OpenDatabase connects to the configured store and applies pending
// migrations.
func OpenDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := dbbuilder.New(
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	if err := dbbuilder.Migrate(ctx, db.DB, cfg.DBDriver, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("driver", cfg.DBDriver))
	return db, nil
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	db, err := OpenDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	// Redis is optional; results are computed uncached without it.
	var cacher handler.Cacher
	cacheClient, err := cache.New(ctx,
		cache.WithAddress(cfg.RedisAddr),
		cache.WithKeyPrefix("eval:"+cfg.AppEnv+":"),
	)
	if err != nil {
		logger.Warn("Cache unavailable, continuing without it", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		cacheClient = nil
	} else {
		cacher = cacheClient
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, 0)
	webhook := notify.NewWebhook(cfg.NotifyWebhookURL, nil, logger)

	authority := approval.NewAuthority(
		repository.NewClaimsRepository(db),
		repository.NewAccessRequestRepository(db),
		logger,
		approval.WithDefaultHQ(cfg.DefaultHQID),
	)
	evaluations := service.NewEvaluationService(repository.NewEvaluationRepository(db), webhook, logger)

	approvalHandlers := handler.NewApprovalHandlers(authority, logger)
	scoringHandlers := handler.NewScoringHandlers(evaluations, cacher, logger, cfg.ResultCacheTTL)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
		grpcsrv.WithAuthenticator(tokens.Authenticate),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	grpcServer.RegisterServiceWithHealth(v1.AccessApprovalServiceName, func(s *grpc.Server) {
		v1.RegisterAccessApprovalServer(s, approvalHandlers)
	})
	grpcServer.RegisterServiceWithHealth(v1.ScoringServiceName, func(s *grpc.Server) {
		v1.RegisterScoringServer(s, scoringHandlers)
	})

	relay := notify.NewServer(webhook, tokens,
		notify.WithAllowedHQs(cfg.NotifyAllowedHQs...),
		notify.WithAllowedOrigins(cfg.CORSAllowedOrigins...),
		notify.WithLogger(logger),
	)

	return &App{
		logger:     logger,
		db:         db,
		cache:      cacheClient,
		grpcServer: grpcServer,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           relay,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Run serves gRPC and HTTP until a shutdown signal is received or one of the
// servers fails.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("application starting")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(a.grpcServer.Serve)
	g.Go(func() error {
		a.logger.Info("HTTP server serving", zap.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("application shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return errors.Join(
			a.grpcServer.Shutdown(shutdownCtx),
			a.httpServer.Shutdown(shutdownCtx),
		)
	})

	err := g.Wait()

	if a.cache != nil {
		if cerr := a.cache.Close(); cerr != nil {
			a.logger.Error("cache shutdown error", zap.Error(cerr))
		}
	}
	if cerr := a.db.Close(); cerr != nil {
		a.logger.Error("database shutdown error", zap.Error(cerr))
	}

	if err != nil {
		return err
	}
	a.logger.Info("graceful shutdown completed successfully")
	return nil
}
