package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full runtime configuration of the assistant service.
// Values come from environment variables, with an optional YAML file
// (CONFIG_PATH) layered underneath.
type Config struct {
	// Orchestration knobs
	EnableParallelAgents     bool          `mapstructure:"enable_parallel_agents"`
	MinDomainsForParallel    int           `mapstructure:"min_domains_for_parallel"`
	ParallelExecutionTimeout time.Duration `mapstructure:"parallel_execution_timeout"`
	FallbackToSequential     bool          `mapstructure:"fallback_to_sequential"`
	LogExecutionTimeline     bool          `mapstructure:"log_execution_timeline"`

	// Query cache
	EnableQueryCache bool          `mapstructure:"enable_query_cache"`
	QueryCacheTTL    time.Duration `mapstructure:"query_cache_ttl"`

	// Downstream services
	LLMServiceURL       string `mapstructure:"llm_service_url"`
	EmbeddingServiceURL string `mapstructure:"embedding_service_url"`
	StructuredQueryURL  string `mapstructure:"structured_query_url"`
	VectorDBHost        string `mapstructure:"vectordb_host"`
	VectorDBPort        int    `mapstructure:"vectordb_port"`
	RedisAddr           string `mapstructure:"redis_addr"`
	RedisPassword       string `mapstructure:"redis_password"`

	// Server ports
	HTTPPort    int `mapstructure:"http_port"`
	MetricsPort int `mapstructure:"metrics_port"`

	// Hot-reloadable keyword lists for the domain detector
	KeywordsConfigPath string `mapstructure:"keywords_config_path"`

	// Conversation history
	MaxHistoryMessages int           `mapstructure:"max_history_messages"`
	SessionTTL         time.Duration `mapstructure:"session_ttl"`

	// Retrieval
	RetrievalTopK int `mapstructure:"retrieval_top_k"`

	Tracing TracingConfig `mapstructure:"tracing"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TracingConfig mirrors the tracing package knobs
type TracingConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

// LoggingConfig controls the zap logger setup
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load builds the configuration from environment variables, layered over an
// optional YAML file named by CONFIG_PATH.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	bindEnvs(v)

	if cfgPath := v.GetString("config_path"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("enable_parallel_agents", true)
	v.SetDefault("min_domains_for_parallel", 4)
	v.SetDefault("parallel_execution_timeout", 60*time.Second)
	v.SetDefault("fallback_to_sequential", true)
	v.SetDefault("log_execution_timeline", false)

	v.SetDefault("enable_query_cache", false)
	v.SetDefault("query_cache_ttl", time.Hour)

	v.SetDefault("llm_service_url", "http://llm-service:8000")
	v.SetDefault("embedding_service_url", "http://embedding-service:8000")
	v.SetDefault("structured_query_url", "http://structured-query:8000")
	v.SetDefault("vectordb_host", "qdrant")
	v.SetDefault("vectordb_port", 6333)
	v.SetDefault("redis_addr", "redis:6379")

	v.SetDefault("http_port", 8080)
	v.SetDefault("metrics_port", 2112)

	v.SetDefault("keywords_config_path", "/app/config")

	v.SetDefault("max_history_messages", 100)
	v.SetDefault("session_ttl", 24*time.Hour)
	v.SetDefault("retrieval_top_k", 5)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4317")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvs maps the flat environment variable names onto the mapstructure keys.
// AutomaticEnv alone does not see nested keys, so the two nested sections get
// explicit bindings.
func bindEnvs(v *viper.Viper) {
	_ = v.BindEnv("enable_parallel_agents", "ENABLE_PARALLEL_AGENTS")
	_ = v.BindEnv("min_domains_for_parallel", "MIN_DOMAINS_FOR_PARALLEL")
	_ = v.BindEnv("parallel_execution_timeout", "PARALLEL_EXECUTION_TIMEOUT")
	_ = v.BindEnv("fallback_to_sequential", "FALLBACK_TO_SEQUENTIAL")
	_ = v.BindEnv("log_execution_timeline", "LOG_EXECUTION_TIMELINE")
	_ = v.BindEnv("enable_query_cache", "ENABLE_QUERY_CACHE")
	_ = v.BindEnv("query_cache_ttl", "QUERY_CACHE_TTL")
	_ = v.BindEnv("llm_service_url", "LLM_SERVICE_URL")
	_ = v.BindEnv("embedding_service_url", "EMBEDDING_SERVICE_URL")
	_ = v.BindEnv("structured_query_url", "STRUCTURED_QUERY_URL")
	_ = v.BindEnv("vectordb_host", "VECTORDB_HOST")
	_ = v.BindEnv("vectordb_port", "VECTORDB_PORT")
	_ = v.BindEnv("redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("http_port", "HTTP_PORT")
	_ = v.BindEnv("metrics_port", "METRICS_PORT")
	_ = v.BindEnv("keywords_config_path", "KEYWORDS_CONFIG_PATH")
	_ = v.BindEnv("max_history_messages", "MAX_HISTORY_MESSAGES")
	_ = v.BindEnv("session_ttl", "SESSION_TTL")
	_ = v.BindEnv("retrieval_top_k", "RETRIEVAL_TOP_K")
	_ = v.BindEnv("config_path", "CONFIG_PATH")
	_ = v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	_ = v.BindEnv("tracing.otlp_endpoint", "OTLP_ENDPOINT")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate rejects configurations that would misbehave at runtime
func (c *Config) Validate() error {
	if c.MinDomainsForParallel < 1 {
		return fmt.Errorf("min_domains_for_parallel must be >= 1, got %d", c.MinDomainsForParallel)
	}
	if c.ParallelExecutionTimeout <= 0 {
		return fmt.Errorf("parallel_execution_timeout must be positive, got %s", c.ParallelExecutionTimeout)
	}
	if c.MaxHistoryMessages < 1 {
		return fmt.Errorf("max_history_messages must be >= 1, got %d", c.MaxHistoryMessages)
	}
	if c.RetrievalTopK < 1 {
		return fmt.Errorf("retrieval_top_k must be >= 1, got %d", c.RetrievalTopK)
	}
	return nil
}

// VectorDBURL returns the base URL of the vector database HTTP API
func (c *Config) VectorDBURL() string {
	return fmt.Sprintf("http://%s:%d", c.VectorDBHost, c.VectorDBPort)
}
