package app

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/markdave123-py/vectora/internal/config"
	"github.com/markdave123-py/vectora/internal/core"
	db "github.com/markdave123-py/vectora/internal/core/database"
	"github.com/markdave123-py/vectora/internal/core/embed"
	"github.com/markdave123-py/vectora/internal/core/extract"
	"github.com/markdave123-py/vectora/internal/core/ingestion_engine"
	"github.com/markdave123-py/vectora/internal/core/llm"
	"github.com/markdave123-py/vectora/internal/core/objectclient"
	"github.com/markdave123-py/vectora/internal/core/store"
)

// App owns every long-lived component and their shutdown order.
type App struct {
	DBClient core.DbClient
	Ingestor *ingestion_engine.DocumentIngestor
	Store    *store.Store
	Server   *Server

	closers []io.Closer
}

// NewApp wires the pipeline from config. Missing credentials degrade
// rather than fail: no DATABASE_URL means the in-memory store, no
// GEMINI_API_KEY means deterministic embeddings, no AWS keys means no
// object storage staging.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	a := &App{}

	if cfg.DatabaseURL != "" {
		dbClient, err := db.NewDatabaseClient(appCtx, cfg)
		if err != nil {
			return nil, err
		}
		a.DBClient = dbClient
		a.closers = append(a.closers, dbClient)
		slog.Info("database initialized and ready")
	} else {
		a.DBClient = db.NewMemoryClient()
		slog.Warn("DATABASE_URL not set, using in-memory store")
	}

	var objClient core.ObjectClient
	if cfg.AwsAccessKey != "" && cfg.AwsSecretKey != "" {
		s3Client, err := objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			return nil, err
		}
		objClient = s3Client
		slog.Info("object client initialized and ready")
	} else {
		slog.Warn("AWS credentials not set, object storage disabled")
	}

	var provider core.EmbeddingProvider
	if cfg.AIAPIKey != "" {
		embedder, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, err
		}
		provider = embedder
		a.closers = append(a.closers, embedder)
	} else {
		slog.Warn("GEMINI_API_KEY not set, using deterministic embeddings")
	}

	extractorOpts := []extract.Option{
		extract.WithPreferred(extract.NewDocconvConverter(false)),
	}
	if objClient != nil {
		extractorOpts = append(extractorOpts, extract.WithObjectClient(objClient))
	}
	extractor := extract.New(extractorOpts...)

	generator := embed.New(provider)
	a.Store = store.New(a.DBClient, generator)
	a.Ingestor = ingestion_engine.NewDocumentIngestor(extractor, generator, a.Store)
	a.Server = NewServer(cfg, a.Ingestor, a.Store, objClient)

	return a, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}
