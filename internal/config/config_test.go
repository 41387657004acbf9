package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adda-Baaj/blog-digest/pkg/summarizer"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key-from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.Summarizer.APIKey)
	assert.Equal(t, "wow", cfg.Provider.ID)
	assert.Equal(t, ExtractorBrowser, cfg.Extractor.Mode)
	assert.Equal(t, 3*time.Second, cfg.Extractor.Timeout())
	assert.True(t, cfg.Extractor.Headless)
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.Summarizer.Model)
	assert.InDelta(t, 0.1, cfg.Summarizer.Temperature, 1e-9)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.CallDelay())
	assert.Equal(t, 5*time.Second, cfg.Pipeline.PostDelay())
	assert.Equal(t, "./public/data/summaries.json", cfg.Store.Path)
	assert.Equal(t, "https://worldofwarcraft.blizzard.com/en-us/search/blog?a=Blizzard%20Entertainment", cfg.Provider.SourceURL)
	assert.Equal(t, summarizer.DefaultProfile(), cfg.Summarizer.Profile)
	assert.Empty(t, cfg.Run.Schedule)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harvester.yaml")
	content := `
provider:
  name: Test News
  source_url: https://news.example.test/en-us/news
extractor:
  mode: HTTP
  readability_fallback: true
summarizer:
  profile:
    product: Diablo IV
    current_edition: Vessel of Hatred
    future_editions: [Season 8]
    general_word_limit: 80
pipeline:
  call_delay_ms: 10
  max_attempts: 1
run:
  schedule: "0 */6 * * *"
  timezone: Europe/Berlin
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("HARVESTER_CONFIG", path)
	t.Setenv("HARVESTER_SUMMARIZER_API_KEY", "direct")
	t.Setenv("HARVESTER_PIPELINE_MAX_ATTEMPTS", "7")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Test News", cfg.Provider.Name)
	assert.Equal(t, "https://news.example.test/en-us/news", cfg.Provider.SourceURL)
	assert.Equal(t, ExtractorHTTP, cfg.Extractor.Mode)
	assert.True(t, cfg.Extractor.ReadabilityFallback)
	assert.Equal(t, 10*time.Millisecond, cfg.Pipeline.CallDelay())
	assert.Equal(t, 7, cfg.Pipeline.MaxAttempts)
	assert.Equal(t, "direct", cfg.Summarizer.APIKey)
	assert.Equal(t, "Diablo IV", cfg.Summarizer.Profile.Product)
	assert.Equal(t, "Vessel of Hatred", cfg.Summarizer.Profile.CurrentEdition)
	assert.Equal(t, []string{"Season 8"}, cfg.Summarizer.Profile.FutureEditions)
	assert.Equal(t, 80, cfg.Summarizer.Profile.GeneralWordLimit)
	assert.Equal(t, summarizer.DefaultProfile().FacetWordTarget, cfg.Summarizer.Profile.FacetWordTarget)
	assert.Equal(t, "0 */6 * * *", cfg.Run.Schedule)
	assert.Equal(t, "Europe/Berlin", cfg.Run.Timezone)
}

func TestLoadMissingConfigFile(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("HARVESTER_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("HARVESTER_SUMMARIZER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "summarizer.api_key")
}

func validConfig() Config {
	return Config{
		Provider:   ProviderConfig{ID: "wow", BaseURL: "https://a.test", SourceURL: "https://a.test/news"},
		Extractor:  ExtractorConfig{Mode: ExtractorHTTP, TimeoutMS: 100},
		Summarizer: SummarizerConfig{BaseURL: "https://g.test", Model: "m", TimeoutSeconds: 1, APIKey: "k"},
		Store:      StoreConfig{Path: "out.json"},
		Run:        RunConfig{Timezone: "UTC"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := map[string]func(*Config){
		"relative source":  func(c *Config) { c.Provider.SourceURL = "/news" },
		"empty base":       func(c *Config) { c.Provider.BaseURL = "" },
		"bad mode":         func(c *Config) { c.Extractor.Mode = "telepathy" },
		"negative delay":   func(c *Config) { c.Pipeline.PostDelayMS = -1 },
		"negative retries": func(c *Config) { c.Pipeline.MaxAttempts = -1 },
		"no store":         func(c *Config) { c.Store.Path = "" },
		"bad timezone":     func(c *Config) { c.Run.Timezone = "Mars/Olympus" },
		"zero timeout":     func(c *Config) { c.Extractor.TimeoutMS = 0 },
		"negative words":   func(c *Config) { c.Summarizer.Profile.FacetWordTarget = -5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := validConfig()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
