package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/askdocs/askdocs/internal/api/handlers"
	"github.com/askdocs/askdocs/internal/api/middleware"
	"github.com/askdocs/askdocs/internal/auth"
	"github.com/askdocs/askdocs/internal/cache"
	"github.com/askdocs/askdocs/internal/config"
	"github.com/askdocs/askdocs/internal/embedding"
	"github.com/askdocs/askdocs/internal/llm"
	"github.com/askdocs/askdocs/internal/queue"
	"github.com/askdocs/askdocs/internal/rag"
	"github.com/askdocs/askdocs/internal/vectorstore"
)

type Router struct {
	mux      *chi.Mux
	db       *pgxpool.Pool
	redis    *redis.Client
	cfg      *config.Config
	jwt      *auth.JWTMiddleware
	pipeline rag.Pipeline
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	gw := llm.NewGateway(cfg.LLM)
	embedSvc := embedding.NewService(gw, cfg.Embedding.Model, cfg.Embedding.Dimension)
	store := vectorstore.NewPgVectorStore(db)

	pipeline := rag.NewPipeline(store, embedSvc, gw, rag.PipelineConfig{
		GenerationProvider: cfg.LLM.DefaultProvider,
		GenerationModel:    cfg.LLM.DefaultModel,
		RerankModel:        cfg.LLM.RerankModel,
		Defaults: rag.Options{
			TopK:         cfg.Retrieval.TopK,
			RerankTopK:   cfg.Retrieval.RerankTopK,
			UseReranking: cfg.Retrieval.UseReranking,
		},
	})

	return &Router{
		mux:      chi.NewRouter(),
		db:       db,
		redis:    rdb,
		cfg:      cfg,
		jwt:      auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
		pipeline: pipeline,
	}
}

// Pipeline exposes the assembled pipeline for the worker process.
func (rt *Router) Pipeline() rag.Pipeline { return rt.pipeline }

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	var queryCache *cache.QueryCache
	if rt.redis != nil && rt.cfg.Retrieval.CacheTTLSecs > 0 {
		queryCache = cache.NewQueryCache(rt.redis, time.Duration(rt.cfg.Retrieval.CacheTTLSecs)*time.Second)
	}

	var queueClient *queue.Client
	if rt.redis != nil {
		queueClient = queue.NewClient(rt.cfg.Redis)
	}

	docs := handlers.NewDocumentHandler(rt.pipeline, queueClient)
	query := handlers.NewQueryHandler(rt.pipeline, queryCache)

	r.Route("/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		r.Post("/documents", docs.Ingest)
		r.Post("/documents/upload", docs.Upload)
		r.Delete("/documents/{id}", docs.Delete)
		r.Get("/stats", docs.Stats)
		r.Post("/query", query.Query)
	})

	return r
}
