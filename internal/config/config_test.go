package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/weft/internal/core/model"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 500*time.Millisecond, cfg.Resolver.Retry.BackoffBase())
	assert.Equal(t, time.Hour, cfg.Cache.TTL())
}

func TestLoadOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[annotate]
kinds = ["env_medium"]
shadow = true

[resolver]
static_terms = "terms.tsv"

[resolver.backends]
env_medium = "static"

[cache]
backend = "redis"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"env_medium"}, cfg.Annotate.Kinds)
	assert.True(t, cfg.Annotate.Shadow)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	// Untouched sections keep their defaults.
	assert.Equal(t, "localhost:6379", cfg.Cache.RedisAddr)
	assert.Equal(t, 3, cfg.Resolver.Retry.MaxAttempts)

	kinds, err := cfg.Kinds()
	require.NoError(t, err)
	require.Len(t, kinds, 1)
	assert.Equal(t, model.BackendStatic, cfg.Backend(kinds[0]))
	assert.NoError(t, cfg.Validate())
}

func TestLoadKeepsDefaultKinds(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[llm]\nmodel = \"gpt-4o\"\n"))
	require.NoError(t, err)
	assert.Equal(t, model.DefaultKinds(), cfg.Annotate.Kinds)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "[llm\nprovider = "))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("BIOPORTAL_API_KEY", "bp-key")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("MEMGRAPH_PASSWORD", "pw")
	t.Setenv("WEFT_WORKERS", "4")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, "bp-key", cfg.Resolver.BioPortal.APIKey)
	assert.Equal(t, "redis:6380", cfg.Cache.RedisAddr)
	assert.Equal(t, "pw", cfg.Memgraph.Password)
	assert.Equal(t, 4, cfg.Concurrency.Documents)
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.Annotate.Kinds = []string{"attribute_method", "nope"}
	cfg.LLM.Provider = "mystery"
	cfg.Resolver.Backends = map[string]string{"attribute_unit": "carrier-pigeon"}
	cfg.Cache.Backend = "disk"
	cfg.Concurrency.Documents = 0
	cfg.Annotate.Portal = "moon"

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "unknown annotation kind: nope")
	assert.Contains(t, msg, "unknown cache backend")
	assert.Contains(t, msg, "concurrency.documents")
	assert.Contains(t, msg, "annotate.portal")

	cfg.Annotate.Kinds = []string{"attribute_method"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported llm provider")
	assert.Contains(t, err.Error(), "carrier-pigeon")
}

func TestLoadExportSections(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[soso]
lookup_doi = false
annotate = true
pasta_url = "http://localhost:8080"

[benchmark]
vocabularies = ["ENVO"]
embeddings = true
`))
	require.NoError(t, err)
	assert.False(t, cfg.SOSO.LookupDOI)
	assert.True(t, cfg.SOSO.Annotate)
	assert.Equal(t, "http://localhost:8080", cfg.SOSO.PastaURL)
	assert.Equal(t, "https://doi.org", cfg.SOSO.DOIURL)
	assert.Equal(t, []string{"ENVO"}, cfg.Benchmark.Vocabularies)
	assert.True(t, cfg.Benchmark.Embeddings)
	assert.NoError(t, cfg.Validate())

	cfg.SOSO.DOIURL = ""
	cfg.SOSO.LookupDOI = true
	cfg.Benchmark.Vocabularies = nil
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "soso.doi_url")
	assert.Contains(t, err.Error(), "benchmark.vocabularies")
}
