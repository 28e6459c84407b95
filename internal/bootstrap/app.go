package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"partner-portal-backend/internal/applications"
	"partner-portal-backend/internal/drafts"
	"partner-portal-backend/internal/invitations"
	"partner-portal-backend/internal/migration"
	"partner-portal-backend/internal/notes"
	"partner-portal-backend/internal/notify"
	"partner-portal-backend/internal/queue"
	"partner-portal-backend/internal/reviews"
	"partner-portal-backend/internal/sharepoint"
	"partner-portal-backend/internal/shared/config"
	"partner-portal-backend/internal/shared/server"
	"partner-portal-backend/internal/shared/storage/db"
	"partner-portal-backend/internal/shared/storage/object"
	localstore "partner-portal-backend/internal/shared/storage/object/local"
	s3store "partner-portal-backend/internal/shared/storage/object/s3"
)

// App holds the wired dependency graph shared by the API server and worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client

	InvitationsRepo invitations.Repo
	DraftsRepo      drafts.Repo
	AppsRepo        applications.Repo
	ReviewsRepo     reviews.Repo
	NotesRepo       notes.Repo
	Outbox          migration.OutboxRepo

	DraftService       *drafts.Service
	ApplicationService *applications.Service
	ReviewService      *reviews.Service
	Engine             *migration.Engine
	Dispatcher         notify.Dispatcher
}

// Build prepares the dependency graph and the HTTP router for the API server.
func Build(cfg config.Config) (*App, error) {
	return build(cfg, db.OptionsFromEnv(db.DefaultServerOptions()))
}

// BuildWorker prepares the same graph with a pool sized for the worker.
func BuildWorker(cfg config.Config) (*App, error) {
	return build(cfg, db.OptionsFromEnv(db.DefaultWorkerOptions()))
}

func build(cfg config.Config, dbOpts db.Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, dbOpts)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		DraftHandler:      drafts.NewHandler(app.DraftService),
		SubmissionHandler: applications.NewHandler(app.ApplicationService),
		MigrationHandler:  migration.NewHandler(app.Engine, app.AppsRepo),
		ReviewHandler:     reviews.NewHandler(app.ReviewService, app.ApplicationService),
		NoteHandler:       notes.NewHandler(app.NotesRepo, app.ApplicationService),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config, opts db.Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.SQSQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.SQSQueueURL, cfg.AWSRegion)
}

func buildServices(app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.InvitationsRepo = &invitations.PGRepo{DB: app.DB}
		app.DraftsRepo = &drafts.PGRepo{DB: app.DB}
		app.AppsRepo = &applications.PGRepo{DB: app.DB}
		app.ReviewsRepo = &reviews.PGRepo{DB: app.DB}
		app.NotesRepo = &notes.PGRepo{DB: app.DB}
		app.Outbox = &migration.PGOutbox{DB: app.DB}
	} else {
		app.InvitationsRepo = invitations.NewMemoryRepo()
		app.DraftsRepo = drafts.NewMemoryRepo()
		app.AppsRepo = applications.NewMemoryRepo()
		app.ReviewsRepo = reviews.NewMemoryRepo()
		app.NotesRepo = notes.NewMemoryRepo()
		app.Outbox = migration.NewMemoryOutbox()
	}

	app.DraftService = &drafts.Service{
		Store:       app.Store,
		Repo:        app.DraftsRepo,
		Invitations: app.InvitationsRepo,
	}

	tokens, client, err := buildSharePoint(cfg)
	if err != nil {
		return err
	}

	app.Engine = migration.NewEngine(
		app.AppsRepo,
		app.DraftService,
		tokens,
		client,
		app.Outbox,
		app.Queue,
		cfg.SPLibraryRoot,
		cfg.SPScope,
		cfg.MigrationMaxAttempts,
	)

	app.ApplicationService = &applications.Service{
		Repo:        app.AppsRepo,
		Drafts:      app.DraftsRepo,
		Invitations: app.InvitationsRepo,
		Scheduler:   app.Engine,
	}

	app.Dispatcher = buildDispatcher(cfg)
	app.ReviewService = &reviews.Service{
		Repo:       app.ReviewsRepo,
		Apps:       app.AppsRepo,
		Drafts:     app.DraftService,
		Dispatcher: app.Dispatcher,
	}

	return nil
}

func buildSharePoint(cfg config.Config) (migration.TokenSource, migration.RepositoryClient, error) {
	if strings.TrimSpace(cfg.SPSiteURL) == "" || strings.TrimSpace(cfg.SPTokenEndpoint) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: SharePoint not configured; migrations will fail until it is")
			return unconfiguredTokens{}, sharepoint.NewClient(cfg.SPSiteURL), nil
		}
		return nil, nil, fmt.Errorf("SP_SITE_URL and SP_TOKEN_ENDPOINT are required")
	}

	tokens, err := sharepoint.NewTokenProvider(sharepoint.TokenProviderConfig{
		TokenEndpoint:  cfg.SPTokenEndpoint,
		ClientID:       cfg.SPClientID,
		CertificatePEM: cfg.SPCertificatePEM,
		PrivateKeyPEM:  cfg.SPPrivateKeyPEM,
		Thumbprint:     cfg.SPThumbprint,
		ClientSecret:   cfg.SPClientSecret,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sharepoint token provider: %w", err)
	}
	return tokens, sharepoint.NewClient(cfg.SPSiteURL), nil
}

func buildDispatcher(cfg config.Config) notify.Dispatcher {
	if strings.TrimSpace(cfg.NotifyWebhookURL) == "" {
		return notify.Noop{}
	}
	return notify.NewWebhookDispatcher(cfg.NotifyWebhookURL)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
