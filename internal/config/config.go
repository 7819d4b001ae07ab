package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/agenthands/weft/internal/core/model"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

// PromptsConfig overrides the built-in prompt templates. Each template takes
// the same fmt verbs as its default.
type PromptsConfig struct {
	Grounding string `toml:"grounding"`
	Rerank    string `toml:"rerank"`
}

type AnnotateConfig struct {
	Kinds             []string `toml:"kinds"`
	Portal            string   `toml:"portal"`
	Author            string   `toml:"author"`
	Shadow            bool     `toml:"shadow"`
	MarkUnannotatable bool     `toml:"mark_unannotatable"`
	Sentinel          string   `toml:"sentinel"`
	CompactIDs        bool     `toml:"compact_ids"`
}

type BioPortalConfig struct {
	URL        string `toml:"url"`
	APIKey     string `toml:"api_key"`
	MaxResults int    `toml:"max_results"`
	Rerank     bool   `toml:"rerank"`
}

type UnitsConfig struct {
	URL string `toml:"url"`
}

type RetryConfig struct {
	MaxAttempts       int     `toml:"max_attempts"`
	BackoffBaseMS     int     `toml:"backoff_base_ms"`
	BackoffMultiplier float64 `toml:"backoff_multiplier"`
	MaxBackoffMS      int     `toml:"max_backoff_ms"`
	TimeoutMS         int     `toml:"timeout_ms"`
}

func (r RetryConfig) BackoffBase() time.Duration {
	return time.Duration(r.BackoffBaseMS) * time.Millisecond
}

func (r RetryConfig) MaxBackoff() time.Duration {
	return time.Duration(r.MaxBackoffMS) * time.Millisecond
}

func (r RetryConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutMS) * time.Millisecond
}

type ResolverConfig struct {
	// Backends overrides the resolver backend per annotation kind.
	Backends  map[string]string `toml:"backends"`
	BioPortal BioPortalConfig   `toml:"bioportal"`
	Units     UnitsConfig       `toml:"units"`
	Retry     RetryConfig       `toml:"retry"`
	// StaticTerms points at a TSV of text, label, id, vocabulary rows used
	// by the static backend.
	StaticTerms string `toml:"static_terms"`
}

type CacheConfig struct {
	Backend    string `toml:"backend"`
	RedisAddr  string `toml:"redis_addr"`
	RedisDB    int    `toml:"redis_db"`
	Prefix     string `toml:"prefix"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type MemgraphConfig struct {
	Enabled  bool   `toml:"enabled"`
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Embed    bool   `toml:"embed"`
}

// SOSOConfig controls the schema.org JSON-LD export.
type SOSOConfig struct {
	PastaURL  string `toml:"pasta_url"`
	PortalURL string `toml:"portal_url"`
	DOIURL    string `toml:"doi_url"`
	Provider  string `toml:"provider"`
	Publisher string `toml:"publisher"`
	LookupDOI bool   `toml:"lookup_doi"`
	// Annotate writes <id>.json next to every annotated document.
	Annotate bool `toml:"annotate"`
}

type BenchmarkConfig struct {
	Vocabularies []string `toml:"vocabularies"`
	Embeddings   bool     `toml:"embeddings"`
}

type ConcurrencyConfig struct {
	Documents int `toml:"documents"`
}

type Config struct {
	LLM         LLMConfig         `toml:"llm"`
	Prompts     PromptsConfig     `toml:"prompts"`
	Annotate    AnnotateConfig    `toml:"annotate"`
	Resolver    ResolverConfig    `toml:"resolver"`
	Cache       CacheConfig       `toml:"cache"`
	Memgraph    MemgraphConfig    `toml:"memgraph"`
	SOSO        SOSOConfig        `toml:"soso"`
	Benchmark   BenchmarkConfig   `toml:"benchmark"`
	Concurrency ConcurrencyConfig `toml:"concurrency"`
}

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Default returns a configuration that annotates the default kinds with the
// public BioPortal and LTER unit services and an in-memory cache.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Annotate: AnnotateConfig{
			Kinds:    model.DefaultKinds(),
			Portal:   "production",
			Author:   "weft",
			Sentinel: model.Unannotatable,
		},
		Resolver: ResolverConfig{
			BioPortal: BioPortalConfig{
				URL:        "https://data.bioontology.org/annotator",
				MaxResults: 5,
			},
			Units: UnitsConfig{
				URL: "https://vocab.lternet.edu/webservice/unitsws.php",
			},
			Retry: RetryConfig{
				MaxAttempts:       3,
				BackoffBaseMS:     500,
				BackoffMultiplier: 2,
				MaxBackoffMS:      10000,
				TimeoutMS:         30000,
			},
		},
		Cache: CacheConfig{
			Backend:    CacheMemory,
			RedisAddr:  "localhost:6379",
			Prefix:     "weft",
			TTLSeconds: 3600,
		},
		Memgraph: MemgraphConfig{
			URI: "bolt://localhost:7687",
		},
		SOSO: SOSOConfig{
			PastaURL:  "https://pasta.lternet.edu",
			PortalURL: "https://portal.edirepository.org/nis/mapbrowse",
			DOIURL:    "https://doi.org",
			Provider:  "https://edirepository.org",
			Publisher: "https://edirepository.org",
			LookupDOI: true,
		},
		Benchmark: BenchmarkConfig{
			Vocabularies: []string{"ENVO", "ECSO", "ENVTHES"},
		},
		Concurrency: ConcurrencyConfig{
			Documents: 1,
		},
	}
}

// Load reads a TOML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	cfg.Annotate.Kinds = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if len(cfg.Annotate.Kinds) == 0 {
		cfg.Annotate.Kinds = model.DefaultKinds()
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment. Unset variables leave
// the configured value alone.
func (c *Config) ApplyEnv() {
	set := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.LLM.Provider, "LLM_PROVIDER")
	set(&c.LLM.Model, "LLM_MODEL")
	set(&c.LLM.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	set(&c.LLM.APIKey, "LLM_API_KEY")
	set(&c.LLM.BaseURL, "LLM_BASE_URL")
	set(&c.Resolver.BioPortal.APIKey, "BIOPORTAL_API_KEY")
	set(&c.Cache.RedisAddr, "REDIS_ADDR")
	set(&c.Memgraph.URI, "MEMGRAPH_URI")
	set(&c.Memgraph.User, "MEMGRAPH_USER")
	set(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")
	if v := os.Getenv("WEFT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Concurrency.Documents = n
		}
	}
}

// Backend returns the resolver backend bound to kind.
func (c *Config) Backend(k model.Kind) string {
	if b, ok := c.Resolver.Backends[k.Name]; ok && b != "" {
		return b
	}
	return k.Backend
}

// Kinds resolves the configured kind names.
func (c *Config) Kinds() ([]model.Kind, error) {
	names := c.Annotate.Kinds
	if len(names) == 0 {
		names = model.DefaultKinds()
	}
	res := make([]model.Kind, 0, len(names))
	for _, name := range names {
		k, err := model.LookupKind(name)
		if err != nil {
			return nil, err
		}
		res = append(res, k)
	}
	return res, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	kinds, err := c.Kinds()
	if err != nil {
		errs = append(errs, err)
	}
	needsLLM := c.Resolver.BioPortal.Rerank
	for _, k := range kinds {
		switch b := c.Backend(k); b {
		case model.BackendLLM:
			needsLLM = true
		case model.BackendBioPortal, model.BackendUnits:
		case model.BackendStatic:
			if c.Resolver.StaticTerms == "" {
				errs = append(errs, fmt.Errorf("kind %s uses the static backend but resolver.static_terms is empty", k.Name))
			}
		}
	}
	for name, b := range c.Resolver.Backends {
		if _, err := model.LookupKind(name); err != nil {
			errs = append(errs, fmt.Errorf("resolver.backends: %w", err))
			continue
		}
		switch b {
		case model.BackendLLM, model.BackendBioPortal, model.BackendUnits, model.BackendStatic:
		default:
			errs = append(errs, fmt.Errorf("resolver.backends: kind %s: unknown resolver backend %q", name, b))
		}
	}
	if needsLLM {
		switch strings.ToLower(c.LLM.Provider) {
		case "openai", "gemini", "claude", "ollama":
		default:
			errs = append(errs, fmt.Errorf("unsupported llm provider: %q", c.LLM.Provider))
		}
	}

	switch c.Annotate.Portal {
	case "production", "staging", "development":
	default:
		errs = append(errs, fmt.Errorf("annotate.portal must be production, staging or development, got %q", c.Annotate.Portal))
	}
	if c.Resolver.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("resolver.retry.max_attempts must be at least 1"))
	}
	if c.Resolver.Retry.BackoffMultiplier < 1 {
		errs = append(errs, errors.New("resolver.retry.backoff_multiplier must be at least 1"))
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			errs = append(errs, errors.New("cache.redis_addr is required for the redis cache"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if c.Memgraph.Enabled && c.Memgraph.URI == "" {
		errs = append(errs, errors.New("memgraph.uri is required when memgraph is enabled"))
	}
	if c.SOSO.PastaURL == "" || c.SOSO.PortalURL == "" {
		errs = append(errs, errors.New("soso.pasta_url and soso.portal_url are required"))
	}
	if c.SOSO.LookupDOI && c.SOSO.DOIURL == "" {
		errs = append(errs, errors.New("soso.doi_url is required when soso.lookup_doi is set"))
	}
	if len(c.Benchmark.Vocabularies) == 0 {
		errs = append(errs, errors.New("benchmark.vocabularies must name at least one vocabulary prefix"))
	}
	if c.Concurrency.Documents < 1 {
		errs = append(errs, errors.New("concurrency.documents must be at least 1"))
	}
	return errors.Join(errs...)
}
