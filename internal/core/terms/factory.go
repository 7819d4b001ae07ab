package terms

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/agenthands/weft/internal/config"
	"github.com/agenthands/weft/internal/core/model"
	"github.com/agenthands/weft/internal/llm"
)

// Factory builds the resolver for each annotation kind from configuration.
// Every resolver it returns retries transient failures and, when Cache is
// set, shares Cache under the kind's name.
type Factory struct {
	Config *config.Config
	LLM    llm.LLMClient
	Cache  Cache
	HTTP   *http.Client
	Logger *slog.Logger

	staticOnce sync.Once
	static     *StaticResolver
	staticErr  error
}

func NewFactory(cfg *config.Config, client llm.LLMClient, cache Cache, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{Config: cfg, LLM: client, Cache: cache, Logger: logger, HTTP: http.DefaultClient}
}

// Resolver returns the wrapped resolver for k.
func (f *Factory) Resolver(k model.Kind) (Resolver, error) {
	base, err := f.backend(k)
	if err != nil {
		return nil, err
	}

	rc := f.Config.Resolver.Retry
	var r Resolver = NewRetryResolver(base, RetryConfig{
		MaxAttempts:       rc.MaxAttempts,
		BackoffBase:       rc.BackoffBase(),
		BackoffMultiplier: rc.BackoffMultiplier,
		MaxBackoff:        rc.MaxBackoff(),
		Timeout:           rc.Timeout(),
	}, f.Logger.With("kind", k.Name))

	if f.Cache != nil {
		r = NewCachedResolver(r, f.Cache, k.Name, f.Logger)
	}
	return r, nil
}

// Resolvers builds one resolver per kind, keyed by kind name.
func (f *Factory) Resolvers(kinds []model.Kind) (map[string]Resolver, error) {
	res := make(map[string]Resolver, len(kinds))
	for _, k := range kinds {
		r, err := f.Resolver(k)
		if err != nil {
			return nil, err
		}
		res[k.Name] = r
	}
	return res, nil
}

func (f *Factory) backend(k model.Kind) (Resolver, error) {
	switch b := f.Config.Backend(k); b {
	case model.BackendLLM:
		if f.LLM == nil {
			return nil, fmt.Errorf("kind %s needs an llm client", k.Name)
		}
		return NewLLMResolver(f.LLM, k, f.Config.Prompts.Grounding), nil

	case model.BackendBioPortal:
		bp := f.Config.Resolver.BioPortal
		r := &BioPortalResolver{
			HTTP:       f.HTTP,
			URL:        bp.URL,
			APIKey:     bp.APIKey,
			Ontology:   k.Vocabulary,
			MaxResults: bp.MaxResults,
			Logger:     f.Logger,
		}
		if bp.Rerank && f.LLM != nil {
			rr := llm.NewSimpleLLMReranker(f.LLM)
			if f.Config.Prompts.Rerank != "" {
				rr.Prompt = f.Config.Prompts.Rerank
			}
			rr.Logger = f.Logger
			r.Reranker = rr
		}
		return r, nil

	case model.BackendUnits:
		return &UnitResolver{HTTP: f.HTTP, URL: f.Config.Resolver.Units.URL}, nil

	case model.BackendStatic:
		f.staticOnce.Do(func() {
			f.static, f.staticErr = LoadStaticTerms(f.Config.Resolver.StaticTerms)
		})
		if f.staticErr != nil {
			return nil, f.staticErr
		}
		return f.static, nil

	default:
		return nil, fmt.Errorf("kind %s: unknown resolver backend %q", k.Name, b)
	}
}

// NewCache opens the cache described by cfg. It returns a nil Cache for the
// "none" backend. The close function is never nil.
func NewCache(ctx context.Context, cfg config.CacheConfig) (Cache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.CacheNone:
		return nil, noop, nil
	case config.CacheMemory, "":
		return NewMemoryCache(), noop, nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		c := NewRedisCache(client, cfg.Prefix, "", cfg.TTL())
		return c, c.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
