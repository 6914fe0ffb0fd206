package bootstrap

import (
	"time"

	"mailassist_server/config"
	"mailassist_server/core/agent/llm"
	"mailassist_server/core/service/correction"
	"mailassist_server/core/service/reply"
	"mailassist_server/core/service/search"
	"mailassist_server/core/service/summary"
	"mailassist_server/infra/database"
	"mailassist_server/pkg/apperr"
	"mailassist_server/pkg/cache"
	"mailassist_server/pkg/logger"
	"mailassist_server/pkg/metrics"
	"mailassist_server/pkg/resilience"

	"github.com/redis/go-redis/v9"
)

const summaryKeyPrefix = "mailassist:"

// Dependencies holds everything the HTTP layer needs.
type Dependencies struct {
	Redis   *redis.Client
	Breaker *resilience.Breaker
	Metrics *metrics.Registry
	LLM     *llm.Client

	ReplyService      *reply.Service
	SummaryService    *summary.Service
	SearchService     *search.Service
	CorrectionService *correction.Service
}

// NewDependencies wires stores, the model client and services. Redis is
// optional: without it, or when it is unreachable, summaries are memoized
// in process.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	deps := &Dependencies{
		Metrics: metrics.NewRegistry(1000),
	}

	// Summary memo store
	var store cache.Store
	if cfg.RedisURL != "" {
		client, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed, using in-memory summary cache: %v", err)
		} else {
			deps.Redis = client
			cleanups = append(cleanups, func() { _ = client.Close() })
			store = cache.NewRedisStore(client, summaryKeyPrefix)
			logger.Info("Summary cache backed by Redis")
		}
	}
	if store == nil {
		mem := cache.NewMemoryStore(cache.MemoryConfig{
			MaxEntries:      cfg.SummaryCacheMaxEntries,
			CleanupInterval: time.Minute,
		})
		cleanups = append(cleanups, mem.Close)
		store = mem
	}

	// Templates
	templates := reply.DefaultTemplates()
	if cfg.ReplyTemplatesFile != "" {
		loaded, err := reply.LoadTemplatesFile(cfg.ReplyTemplatesFile)
		if err != nil {
			cleanup()
			return nil, nil, apperr.ConfigError("invalid reply templates file").
				WithDetail("path", cfg.ReplyTemplatesFile).
				WithError(err)
		}
		templates = loaded
		logger.Info("Reply templates loaded from %s", cfg.ReplyTemplatesFile)
	}

	// Model client
	deps.Breaker = resilience.NewBreaker(resilience.BreakerConfig{
		Name:             "llm",
		MaxRequests:      cfg.BreakerMaxRequests,
		Interval:         time.Duration(cfg.BreakerIntervalSec) * time.Second,
		Timeout:          time.Duration(cfg.BreakerTimeoutSec) * time.Second,
		FailureThreshold: cfg.BreakerFailureThreshold,
	}, logger.Default())

	deps.LLM = llm.NewClient(llm.Config{
		APIKey:          cfg.OpenAIAPIKey,
		BaseURL:         cfg.LLMBaseURL,
		Model:           cfg.LLMModel,
		SummaryModel:    cfg.LLMSummaryModel,
		CorrectionModel: cfg.LLMCorrectionModel,
		Timeout:         cfg.LLMTimeout(),
		Breaker:         deps.Breaker,
	})

	// Services
	deps.ReplyService = reply.NewService(deps.LLM, reply.Config{
		Templates: templates,
		Policy:    reply.AcceptPolicy{MinWords: cfg.ReplyMinWords},
		Recorder:  deps.Metrics,
	})
	deps.SummaryService = summary.NewService(deps.LLM, summary.Config{
		Store:       store,
		TTL:         cfg.SummaryCacheTTL(),
		CallTimeout: cfg.LLMTimeout(),
	})
	deps.SearchService = search.NewService()
	deps.CorrectionService = correction.NewService(deps.LLM, nil)

	return deps, cleanup, nil
}
