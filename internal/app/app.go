// Package app wires configuration, stores, services and transport together.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"mindfullens/internal/cache"
	"mindfullens/internal/config"
	"mindfullens/internal/content"
	"mindfullens/internal/logging"
	"mindfullens/internal/repository"
	"mindfullens/internal/service"
	"mindfullens/internal/transport/rest"
	"mindfullens/internal/transport/ws"
)

// Stores holds the connected Redis and MongoDB clients
type Stores struct {
	Redis *redis.Client
	Mongo *mongo.Client
	DB    *mongo.Database
}

// OpenStores connects and pings Redis and MongoDB
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	logger = logging.OrNop(logger)

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.Mongo.Database))

	db := mongoClient.Database(cfg.Mongo.Database)
	if err := repository.EnsureIndexes(pingCtx, db); err != nil {
		logger.Warn("creating draft index", zap.Error(err))
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     strings.TrimPrefix(cfg.Redis.Addr, "redis://"),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("pinging Redis: %w", err)
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.Redis.Addr))

	return &Stores{Redis: rdb, Mongo: mongoClient, DB: db}, nil
}

// Close disconnects both stores
func (s *Stores) Close(ctx context.Context) error {
	return errors.Join(s.Redis.Close(), s.Mongo.Disconnect(ctx))
}

// App is the fully wired service
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Pack      *content.Pack
	Provider  service.AnalysisProvider
	Extractor *service.ExtractorService
	Auth      *service.AuthService
	Drafts    *service.DraftService
	Workflow  *service.WorkflowService
	Hub       *ws.Hub
	Handler   http.Handler
}

// New builds the service graph on top of the given stores
func New(cfg *config.Config, logger *zap.Logger, workflows cache.WorkflowCache, drafts repository.DraftRepo) (*App, error) {
	logger = logging.OrNop(logger)

	pack, err := content.Load(cfg.Content.Path)
	if err != nil {
		return nil, err
	}

	provider, err := NewProvider(cfg, pack, logger)
	if err != nil {
		return nil, err
	}
	extractor := NewExtractor(cfg, pack, logger)

	hub := ws.NewHub(logger)
	authSvc := service.NewAuthService(cfg.Auth)
	draftSvc := service.NewDraftService(drafts, cfg.Draft.Debounce, logger)
	workflowSvc := service.NewWorkflowService(service.WorkflowDeps{
		Store:       workflows,
		Provider:    provider,
		Extractor:   extractor,
		Drafts:      draftSvc,
		Pack:        pack,
		Broadcaster: hub,
		Timeout:     cfg.Analysis.Timeout,
		Logger:      logger,
	})

	handler := rest.NewRouter(&rest.Container{
		Config:          cfg,
		Logger:          logger,
		AuthService:     authSvc,
		WorkflowService: workflowSvc,
		Provider:        provider,
		Extractor:       extractor,
		WSHub:           hub,
	})

	logger.Info("analysis provider ready",
		zap.String("provider", provider.Name()),
		zap.Bool("remote_extraction", cfg.Extraction.Remote),
	)

	return &App{
		Config:    cfg,
		Logger:    logger,
		Pack:      pack,
		Provider:  provider,
		Extractor: extractor,
		Auth:      authSvc,
		Drafts:    draftSvc,
		Workflow:  workflowSvc,
		Hub:       hub,
		Handler:   handler,
	}, nil
}

// NewProvider selects the analysis provider named in config
func NewProvider(cfg *config.Config, pack *content.Pack, logger *zap.Logger) (service.AnalysisProvider, error) {
	switch cfg.Analysis.Provider {
	case config.ProviderMock, "":
		return service.NewMockProvider(pack, cfg.Analysis.Latency), nil
	case config.ProviderHTTP:
		return service.NewBackendClient(cfg.APIURL, cfg.Analysis.Timeout, logger), nil
	case config.ProviderOpenAI:
		if !cfg.OpenAI.IsEnabled() {
			return nil, fmt.Errorf("openai provider selected but no API key configured")
		}
		return service.NewOpenAIProvider(cfg.OpenAI, pack, logger), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider %q", cfg.Analysis.Provider)
	}
}

// NewExtractor builds the extractor, delegating binary formats to the backend
// when remote extraction is enabled.
func NewExtractor(cfg *config.Config, pack *content.Pack, logger *zap.Logger) *service.ExtractorService {
	var remote service.RemoteExtractor
	if cfg.Extraction.Remote {
		remote = service.NewBackendClient(cfg.APIURL, cfg.Analysis.Timeout, logger)
	}
	return service.NewExtractorService(remote, pack, cfg.Extraction.Latency, cfg.Extraction.MaxBytes, logger)
}

// Close stops background work: running tasks are cancelled, pending drafts
// flushed and WebSocket connections closed.
func (a *App) Close(ctx context.Context) error {
	a.Workflow.Close()
	err := a.Drafts.Close(ctx)
	a.Hub.Close()
	return err
}
