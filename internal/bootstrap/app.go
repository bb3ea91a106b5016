package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ragdash/internal/apiclient"
	"ragdash/internal/app"
	"ragdash/internal/auth"
	"ragdash/internal/cache"
	"ragdash/internal/config"
	"ragdash/internal/metrics"
	"ragdash/internal/model"
	"ragdash/internal/notify"
	mysqlClient "ragdash/internal/platform/mysql"
	rabbitmqClient "ragdash/internal/platform/rabbitmq"
	redisClient "ragdash/internal/platform/redis"
	"ragdash/internal/pkg/logger"
	"ragdash/internal/repository"
	"ragdash/internal/worker"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	MySQL          *gorm.DB
	Redis          *redis.Client
	MQConn         *amqp.Connection
	ActivityWorker *worker.ActivityPersistWorker
	publisher      *rabbitmqClient.ActivityPublisher
	activityRepo   *repository.ActivityRepository

	Tokens        auth.TokenStore
	API           *apiclient.Client
	Notifications *notify.Center
	Catalog       *app.CatalogService
	Sessions      *app.SessionService
	Conversation  *app.ConversationService
	Analytics     *app.AnalyticsService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		return nil, fmt.Errorf("build logger failed: %w", err)
	}
	return NewWithConfig(ctx, cfg, log)
}

// NewWithConfig connects the optional stores named by cfg and builds the
// services on top of them. Disabled stores are skipped; the dashboard then
// runs without the transcript cache or analytics history.
func NewWithConfig(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	metrics.Init()

	a := &App{Config: cfg, Logger: log, StartedAt: time.Now()}
	if err := a.connect(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	tokens, err := a.tokenStore()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if cfg.Auth.Token != "" {
		if err := tokens.Set(ctx, cfg.Auth.Token); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("store configured token failed: %w", err)
		}
	}
	a.Tokens = tokens

	a.API = apiclient.New(apiclient.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.APITimeout(),
		Logger:  log.Named("apiclient"),
	}, tokens)
	a.Notifications = notify.NewCenter(notify.DefaultCapacity, log.Named("notify"))

	recorder, store := a.activitySinks()
	var transcripts app.TranscriptCache
	if a.Redis != nil {
		transcripts = cache.NewTranscriptCache(a.Redis, cfg.TranscriptTTL())
	}
	userID := a.userIDFunc()

	a.Catalog = app.NewCatalogService(a.API, app.CatalogConfig{
		MaxUploadBytes: cfg.Upload.MaxSizeBytes,
		AllowedTypes:   cfg.Upload.AllowedTypes,
	}, a.Notifications, recorder, log.Named("catalog"))
	a.Sessions = app.NewSessionService(a.API, model.Provider(cfg.Query.Provider), userID, a.Notifications, log.Named("sessions"))
	a.Conversation = app.NewConversationService(a.API, transcripts, cfg.Query.TopK, userID, a.Notifications, recorder, log.Named("conversation"))
	a.Sessions.Subscribe(a.Conversation)
	a.Analytics = app.NewAnalyticsService(a.API, store)

	if a.ActivityWorker != nil {
		if err := a.ActivityWorker.Start(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("start activity worker failed: %w", err)
		}
	}

	log.Info("dashboard ready",
		zap.String("backend", cfg.API.BaseURL),
		zap.Bool("mysql", a.MySQL != nil),
		zap.Bool("redis", a.Redis != nil),
		zap.Bool("rabbitmq", a.MQConn != nil),
	)
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	cfg := a.Config
	if cfg.MySQL.Enabled {
		db, err := mysqlClient.New(ctx, cfg.MySQLDSN())
		if err != nil {
			return err
		}
		a.MySQL = db
		a.activityRepo = repository.NewActivityRepository(db)
		if err := a.activityRepo.Migrate(ctx); err != nil {
			return err
		}
	}
	if cfg.Redis.Enabled {
		client, err := redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		a.Redis = client
	}
	if cfg.RabbitMQ.Enabled {
		if a.activityRepo == nil {
			a.Logger.Warn("rabbitmq enabled without mysql, activity events will not be queued")
			return nil
		}
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		a.MQConn = conn
		a.publisher = rabbitmqClient.NewActivityPublisher(conn, cfg.RabbitMQ.ActivityQueue)
		a.ActivityWorker = worker.NewActivityPersistWorker(conn, a.activityRepo, cfg.RabbitMQ.ActivityQueue, a.Logger)
	}
	return nil
}

func (a *App) tokenStore() (auth.TokenStore, error) {
	switch a.Config.Auth.Store {
	case "", "memory":
		return auth.NewMemoryStore(""), nil
	case "file":
		if a.Config.Auth.TokenFile == "" {
			return nil, errors.New("auth store file needs auth.token_file")
		}
		return auth.NewFileStore(a.Config.Auth.TokenFile), nil
	case "redis":
		if a.Redis == nil {
			return nil, errors.New("auth store redis needs redis.enabled")
		}
		return auth.NewRedisStore(a.Redis), nil
	default:
		return nil, fmt.Errorf("unknown auth store %q", a.Config.Auth.Store)
	}
}

// activitySinks picks where activity events go and where analytics read them.
// Interfaces stay nil when there is no backing store.
func (a *App) activitySinks() (app.ActivityRecorder, app.ActivityStore) {
	if a.activityRepo == nil {
		return nil, nil
	}
	if a.publisher != nil {
		return a.publisher, a.activityRepo
	}
	return a.activityRepo, a.activityRepo
}

// userIDFunc prefers the configured user id, then the user the request was
// authenticated as, and otherwise reads it from the stored token.
func (a *App) userIDFunc() app.UserIDFunc {
	if id := a.Config.API.UserID; id != "" {
		return app.StaticUserID(id)
	}
	tokens, log := a.Tokens, a.Logger
	return func(ctx context.Context) string {
		if id, ok := auth.UserIDFrom(ctx); ok {
			return id
		}
		token, err := tokens.Get(ctx)
		if err != nil || token == "" {
			return ""
		}
		claims, err := auth.ReadClaims(token)
		if err != nil {
			log.Debug("token has no readable claims", zap.Error(err))
			return ""
		}
		return claims.UserID
	}
}

func (a *App) Close() error {
	var errs []error
	if a.Conversation != nil {
		a.Conversation.Close()
	}
	if a.ActivityWorker != nil {
		a.ActivityWorker.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.MySQL != nil {
		if err := mysqlClient.Close(a.MySQL); err != nil {
			errs = append(errs, err)
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return errors.Join(errs...)
}
