package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Adda-Baaj/blog-digest/pkg/summarizer"
)

const (
	envPrefix         = "HARVESTER"
	envConfigPath     = "HARVESTER_CONFIG"
	defaultConfigName = "config"
)

// Extraction modes.
const (
	ExtractorBrowser = "browser"
	ExtractorHTTP    = "http"
)

// Config is the full runtime configuration of the harvester.
type Config struct {
	Provider   ProviderConfig   `mapstructure:"provider"`
	Extractor  ExtractorConfig  `mapstructure:"extractor"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	Store      StoreConfig      `mapstructure:"store"`
	Publishers PublishersConfig `mapstructure:"publishers"`
	Run        RunConfig        `mapstructure:"run"`
	Log        LogConfig        `mapstructure:"log"`
}

type ProviderConfig struct {
	ID             string            `mapstructure:"id"`
	Name           string            `mapstructure:"name"`
	BaseURL        string            `mapstructure:"base_url"`
	SourceURL      string            `mapstructure:"source_url"`
	Headers        map[string]string `mapstructure:"headers"`
	RequestDelayMS int               `mapstructure:"request_delay_ms"`
}

type ExtractorConfig struct {
	Mode                string `mapstructure:"mode"`
	TimeoutMS           int    `mapstructure:"timeout_ms"`
	UserAgent           string `mapstructure:"user_agent"`
	Headless            bool   `mapstructure:"headless"`
	InstallBrowsers     bool   `mapstructure:"install_browsers"`
	ReadabilityFallback bool   `mapstructure:"readability_fallback"`
}

// Timeout is the per page navigation budget.
func (c ExtractorConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

type SummarizerConfig struct {
	BaseURL        string             `mapstructure:"base_url"`
	Model          string             `mapstructure:"model"`
	Temperature    float64            `mapstructure:"temperature"`
	TimeoutSeconds int                `mapstructure:"timeout_seconds"`
	APIKey         string             `mapstructure:"api_key"`
	Profile        summarizer.Profile `mapstructure:"profile"`
}

// Timeout bounds a single generateContent call.
func (c SummarizerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type PipelineConfig struct {
	CallDelayMS int `mapstructure:"call_delay_ms"`
	PostDelayMS int `mapstructure:"post_delay_ms"`
	MaxAttempts int `mapstructure:"max_attempts"`
}

func (c PipelineConfig) CallDelay() time.Duration {
	return time.Duration(c.CallDelayMS) * time.Millisecond
}

func (c PipelineConfig) PostDelay() time.Duration {
	return time.Duration(c.PostDelayMS) * time.Millisecond
}

type StoreConfig struct {
	Path         string `mapstructure:"path"`
	AttemptsPath string `mapstructure:"attempts_path"`
}

type PublishersConfig struct {
	File string `mapstructure:"file"`
}

type RunConfig struct {
	Schedule string `mapstructure:"schedule"`
	Timezone string `mapstructure:"timezone"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider.id", "wow")
	v.SetDefault("provider.name", "World of Warcraft")
	v.SetDefault("provider.base_url", "https://worldofwarcraft.blizzard.com")
	v.SetDefault("provider.source_url", "https://worldofwarcraft.blizzard.com/en-us/search/blog?a=Blizzard%20Entertainment")
	v.SetDefault("provider.request_delay_ms", 0)

	v.SetDefault("extractor.mode", ExtractorBrowser)
	v.SetDefault("extractor.timeout_ms", 3000)
	v.SetDefault("extractor.user_agent", "")
	v.SetDefault("extractor.headless", true)
	v.SetDefault("extractor.install_browsers", false)
	v.SetDefault("extractor.readability_fallback", false)

	v.SetDefault("summarizer.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("summarizer.model", "gemini-2.5-flash-lite")
	v.SetDefault("summarizer.temperature", 0.1)
	v.SetDefault("summarizer.timeout_seconds", 60)
	v.SetDefault("summarizer.api_key", "")
	profile := summarizer.DefaultProfile()
	v.SetDefault("summarizer.profile.product", profile.Product)
	v.SetDefault("summarizer.profile.current_edition", profile.CurrentEdition)
	v.SetDefault("summarizer.profile.future_editions", profile.FutureEditions)
	v.SetDefault("summarizer.profile.excluded_versions", profile.ExcludedVersions)
	v.SetDefault("summarizer.profile.general_word_limit", profile.GeneralWordLimit)
	v.SetDefault("summarizer.profile.facet_word_target", profile.FacetWordTarget)

	v.SetDefault("pipeline.call_delay_ms", 5000)
	v.SetDefault("pipeline.post_delay_ms", 5000)
	v.SetDefault("pipeline.max_attempts", 3)

	v.SetDefault("store.path", "./public/data/summaries.json")
	v.SetDefault("store.attempts_path", "./public/data/attempts.db")

	v.SetDefault("publishers.file", "")

	v.SetDefault("run.schedule", "")
	v.SetDefault("run.timezone", "UTC")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Load reads .env (if present), the optional config file and HARVESTER_*
// environment overrides, in increasing order of precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("summarizer.api_key", envPrefix+"_SUMMARIZER_API_KEY", "GEMINI_API_KEY"); err != nil {
		return Config{}, fmt.Errorf("bind api key env: %w", err)
	}

	if path := strings.TrimSpace(os.Getenv(envConfigPath)); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(defaultConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Provider.ID = strings.TrimSpace(c.Provider.ID)
	c.Provider.BaseURL = strings.TrimRight(strings.TrimSpace(c.Provider.BaseURL), "/")
	c.Provider.SourceURL = strings.TrimSpace(c.Provider.SourceURL)
	c.Extractor.Mode = strings.ToLower(strings.TrimSpace(c.Extractor.Mode))
	c.Summarizer.APIKey = strings.TrimSpace(c.Summarizer.APIKey)
	c.Summarizer.BaseURL = strings.TrimRight(strings.TrimSpace(c.Summarizer.BaseURL), "/")
	c.Store.Path = strings.TrimSpace(c.Store.Path)
	c.Store.AttemptsPath = strings.TrimSpace(c.Store.AttemptsPath)
	c.Publishers.File = strings.TrimSpace(c.Publishers.File)
	c.Run.Schedule = strings.TrimSpace(c.Run.Schedule)
	c.Run.Timezone = strings.TrimSpace(c.Run.Timezone)
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	var errs []error

	if c.Provider.ID == "" {
		errs = append(errs, errors.New("provider.id is required"))
	}
	if err := checkURL("provider.base_url", c.Provider.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if err := checkURL("provider.source_url", c.Provider.SourceURL); err != nil {
		errs = append(errs, err)
	}
	if c.Provider.RequestDelayMS < 0 {
		errs = append(errs, errors.New("provider.request_delay_ms must not be negative"))
	}

	switch c.Extractor.Mode {
	case ExtractorBrowser, ExtractorHTTP:
	default:
		errs = append(errs, fmt.Errorf("extractor.mode %q must be %q or %q", c.Extractor.Mode, ExtractorBrowser, ExtractorHTTP))
	}
	if c.Extractor.TimeoutMS <= 0 {
		errs = append(errs, errors.New("extractor.timeout_ms must be positive"))
	}

	if c.Summarizer.APIKey == "" {
		errs = append(errs, errors.New("summarizer.api_key is required (set GEMINI_API_KEY)"))
	}
	if err := checkURL("summarizer.base_url", c.Summarizer.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Summarizer.Model) == "" {
		errs = append(errs, errors.New("summarizer.model is required"))
	}
	if c.Summarizer.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("summarizer.timeout_seconds must be positive"))
	}
	if c.Summarizer.Profile.GeneralWordLimit < 0 || c.Summarizer.Profile.FacetWordTarget < 0 {
		errs = append(errs, errors.New("summarizer.profile word limits must not be negative"))
	}

	if c.Pipeline.CallDelayMS < 0 || c.Pipeline.PostDelayMS < 0 {
		errs = append(errs, errors.New("pipeline delays must not be negative"))
	}
	if c.Pipeline.MaxAttempts < 0 {
		errs = append(errs, errors.New("pipeline.max_attempts must not be negative"))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Run.Timezone != "" {
		if _, err := time.LoadLocation(c.Run.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("run.timezone: %w", err))
		}
	}

	return errors.Join(errs...)
}

func checkURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s %q is not an absolute url", key, raw)
	}
	return nil
}
