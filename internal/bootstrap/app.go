// Package bootstrap assembles the application dependency graph from config.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/opencodeiiita/careercraft-backend/internal/coverletters"
	"github.com/opencodeiiita/careercraft-backend/internal/ml"
	"github.com/opencodeiiita/careercraft-backend/internal/ml/mlhttp"
	"github.com/opencodeiiita/careercraft-backend/internal/resumes"
	"github.com/opencodeiiita/careercraft-backend/internal/services/health"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/cache"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/config"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/storage/db"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/storage/object"
	localstore "github.com/opencodeiiita/careercraft-backend/internal/shared/storage/object/local"
	s3store "github.com/opencodeiiita/careercraft-backend/internal/shared/storage/object/s3"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/telemetry"
)

// App holds the wired application components.
type App struct {
	DB    *sql.DB
	Cache cache.Cache
	Store object.ObjectStore
	ML    ml.Client

	Resumes      *resumes.Handler
	CoverLetters *coverletters.Handler
	Health       *health.Service

	redisCache *cache.Redis
}

// Build wires repositories, gateways and services from config. A missing
// database degrades to the in-memory repos and a missing cache backend to the
// no-op cache rather than failing startup; the object store and the ML
// gateway are mandatory.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{}

	if cfg.DatabaseURL != "" {
		conn, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			telemetry.Warn("bootstrap.db.unavailable", map[string]any{"err": err.Error()})
		} else if err := db.RunMigrations(ctx, conn); err != nil {
			telemetry.Warn("bootstrap.db.migrations_failed", map[string]any{"err": err.Error()})
			_ = conn.Close()
		} else {
			app.DB = conn
		}
	}

	app.Cache, app.redisCache = buildCache(ctx, cfg.RedisURL)

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	mlClient, err := mlhttp.NewClient(mlhttp.Options{
		BaseURL:      cfg.MLServiceURL,
		Timeout:      cfg.MLTimeout,
		LocalExtract: cfg.MLExtractMode == "local",
	})
	if err != nil {
		return nil, fmt.Errorf("ml gateway: %w", err)
	}
	app.ML = mlClient

	var resumeRepo resumes.Repo
	var letterRepo coverletters.Repo
	if app.DB != nil {
		resumeRepo = &resumes.PGRepo{DB: app.DB}
		letterRepo = &coverletters.PGRepo{DB: app.DB}
	} else {
		resumeRepo = resumes.NewMemoryRepo()
		letterRepo = coverletters.NewMemoryRepo()
	}

	resumeSvc := &resumes.Service{
		Repo:        resumeRepo,
		Store:       app.Store,
		Cache:       app.Cache,
		ML:          app.ML,
		AnalysisTTL: cfg.AnalysisCacheTTL,
		JobMatchTTL: cfg.JobMatchCacheTTL,
	}
	letterSvc := &coverletters.Service{
		Repo:  letterRepo,
		Cache: app.Cache,
		ML:    app.ML,
	}

	app.Resumes = resumes.NewHandler(resumeSvc)
	app.CoverLetters = coverletters.NewHandler(letterSvc)
	app.Health = health.NewService(app.DB, app.Cache)
	return app, nil
}

// Close releases held connections.
func (a *App) Close() {
	if a.redisCache != nil {
		_ = a.redisCache.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

// buildCache returns the Redis cache when configured, the no-op cache
// otherwise. An unbounded in-process fallback would accumulate 48h analysis
// payloads for the life of the server.
func buildCache(ctx context.Context, redisURL string) (cache.Cache, *cache.Redis) {
	if redisURL == "" {
		return cache.Noop{}, nil
	}
	redisCache, err := cache.NewRedis(ctx, redisURL)
	if err != nil {
		telemetry.Warn("bootstrap.cache.unavailable", map[string]any{"err": err.Error()})
		return cache.Noop{}, nil
	}
	return redisCache, redisCache
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required for the s3 object store")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir, cfg.PublicBaseURL), nil
	}
}
