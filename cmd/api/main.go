package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ahmedhassan-hash/go-starter-template/config"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/middleware"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/http/router/handler"
	"github.com/ahmedhassan-hash/go-starter-template/internal/delivery/realtime"
	"github.com/ahmedhassan-hash/go-starter-template/internal/domain/service"
	"github.com/ahmedhassan-hash/go-starter-template/internal/infra/auth"
	logs "github.com/ahmedhassan-hash/go-starter-template/internal/infra/log"
	"github.com/ahmedhassan-hash/go-starter-template/internal/infra/notification"
	"github.com/ahmedhassan-hash/go-starter-template/internal/infra/payment"
	"github.com/ahmedhassan-hash/go-starter-template/internal/infra/persistence/postgres"
	"github.com/ahmedhassan-hash/go-starter-template/internal/infra/pubsub"
	"github.com/ahmedhassan-hash/go-starter-template/internal/infra/qrcode"
	"github.com/ahmedhassan-hash/go-starter-template/internal/infra/scheduler"
	"github.com/ahmedhassan-hash/go-starter-template/internal/infra/storage"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase"
	"github.com/ahmedhassan-hash/go-starter-template/internal/usecase/impl"

	"go.uber.org/fx"
)

// defaultTokenCleanupInterval is used when no sweep interval is configured.
const defaultTokenCleanupInterval = time.Hour

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		pubsub.Module,
		fx.Invoke(
			registerScheduledTasks,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
		scheduler.NewRegistry,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewRefreshTokenRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			newBcryptHasher,
			auth.NewJWTService,
			storage.New,
			payment.NewStripeService,
			newFirebaseService,
			newQRCodeService,
		),
	)
}

// newBcryptHasher builds the password hasher from the configured cost.
func newBcryptHasher(cfg *config.Config) service.PasswordHasher {
	cost := 0
	if cfg.Auth != nil {
		cost = cfg.Auth.BcryptCost
	}

	return auth.NewBcryptHasher(cost)
}

// newFirebaseService creates a Firebase service with dependency injection
func newFirebaseService(ctx context.Context, cfg *config.Config) (service.NotificationService, error) {
	if cfg.Firebase == nil {
		return nil, nil // Firebase is optional
	}

	svc, err := notification.NewFirebaseService(ctx, cfg.Firebase.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firebase service: %w", err)
	}

	return svc, nil
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(256, "M")
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewFileService,
			impl.NewPaymentService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAuthHandler,
			handler.NewFileHandler,
			handler.NewPaymentHandler,
			realtime.NewHub,
			realtime.NewHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// registerScheduledTasks wires the background jobs and binds the registry to
// the application lifecycle.
func registerScheduledTasks(
	lc fx.Lifecycle,
	cfg *config.Config,
	registry *scheduler.Registry,
	authUsecase usecase.AuthUsecase,
	logger *slog.Logger,
) error {
	interval := defaultTokenCleanupInterval
	if cfg.Scheduler != nil && cfg.Scheduler.TokenCleanupInterval > 0 {
		interval = cfg.Scheduler.TokenCleanupInterval
	}

	err := registry.Register("refresh-token-cleanup", interval, func(ctx context.Context) error {
		removed, err := authUsecase.CleanupExpiredTokens(ctx)
		if err != nil {
			return err
		}

		if removed > 0 {
			logger.Info("Removed expired refresh tokens", slog.Int64("count", removed))
		}

		return nil
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return registry.Start()
		},
		OnStop: func(context.Context) error {
			registry.Stop()

			return nil
		},
	})

	return nil
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
