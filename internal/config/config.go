package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	filePath := os.Getenv(envKey + "_FILE")
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	os.Setenv(envKey, strings.TrimSpace(string(data)))
}

type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	JWT           JWTConfig
	RateLimit     RateLimitConfig
	Provider      ProviderConfig
	Gemini        GeminiConfig
	OpenAI        OpenAIConfig
	R2            R2Config
	Orchestration OrchestrationConfig
}

type ServerConfig struct {
	Port      string
	Env       string
	LogLevel  string
	PublicURL string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	GeneratePerMin int
	RenderPerHour  int
}

// ProviderConfig selects which backend serves the script (text) operations.
// Media synthesis always goes through Gemini when it is configured.
type ProviderConfig struct {
	Text string // gemini, openai or mock
}

type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	TextModel   string
	ImageModel  string
	SpeechModel string
	Timeout     int // seconds
}

type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type OrchestrationConfig struct {
	OperationTimeout   int // seconds
	BulkEnhancePolicy  string
	EnhanceConcurrency int
	SessionTTL         int // minutes
	SampleRate         int
}

func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("JWT_SECRET")
	readSecret("GEMINI_API_KEY")
	readSecret("OPENAI_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = v.BindEnv("server.port", "SERVER_PORT")
	_ = v.BindEnv("server.env", "SERVER_ENV")
	_ = v.BindEnv("server.log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.public_url", "PUBLIC_URL")
	_ = v.BindEnv("redis.addr", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = v.BindEnv("redis.db", "REDIS_DB")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = v.BindEnv("ratelimit.generate_per_min", "RATELIMIT_GENERATE_PER_MIN")
	_ = v.BindEnv("ratelimit.render_per_hour", "RATELIMIT_RENDER_PER_HOUR")
	_ = v.BindEnv("provider.text", "TEXT_PROVIDER")
	_ = v.BindEnv("gemini.api_key", "GEMINI_API_KEY")
	_ = v.BindEnv("gemini.base_url", "GEMINI_BASE_URL")
	_ = v.BindEnv("gemini.text_model", "GEMINI_TEXT_MODEL")
	_ = v.BindEnv("gemini.image_model", "GEMINI_IMAGE_MODEL")
	_ = v.BindEnv("gemini.speech_model", "GEMINI_SPEECH_MODEL")
	_ = v.BindEnv("gemini.timeout", "GEMINI_TIMEOUT")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = v.BindEnv("openai.base_url", "OPENAI_BASE_URL")
	_ = v.BindEnv("openai.model", "OPENAI_MODEL")
	_ = v.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = v.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = v.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = v.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = v.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = v.BindEnv("orchestration.operation_timeout", "OPERATION_TIMEOUT")
	_ = v.BindEnv("orchestration.bulk_enhance_policy", "BULK_ENHANCE_POLICY")
	_ = v.BindEnv("orchestration.enhance_concurrency", "ENHANCE_CONCURRENCY")
	_ = v.BindEnv("orchestration.session_ttl", "SESSION_TTL")
	_ = v.BindEnv("orchestration.sample_rate", "NARRATION_SAMPLE_RATE")

	// Defaults
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.log_level", "info")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expiration", 24)
	v.SetDefault("ratelimit.generate_per_min", 30)
	v.SetDefault("ratelimit.render_per_hour", 120)

	v.SetDefault("provider.text", "gemini")

	// Gemini defaults
	v.SetDefault("gemini.base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini.text_model", "gemini-3-flash-preview")
	v.SetDefault("gemini.image_model", "gemini-2.5-flash-image")
	v.SetDefault("gemini.speech_model", "gemini-2.5-flash-preview-tts")
	v.SetDefault("gemini.timeout", 120)

	// OpenAI defaults
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4o-mini")

	// Orchestration defaults
	v.SetDefault("orchestration.operation_timeout", 180)
	v.SetDefault("orchestration.bulk_enhance_policy", "all_or_nothing")
	v.SetDefault("orchestration.enhance_concurrency", 4)
	v.SetDefault("orchestration.session_ttl", 120)
	v.SetDefault("orchestration.sample_rate", 24000)

	// Try to read config file (optional)
	_ = v.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      v.GetString("server.port"),
			Env:       v.GetString("server.env"),
			LogLevel:  v.GetString("server.log_level"),
			PublicURL: strings.TrimRight(v.GetString("server.public_url"), "/"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     v.GetString("jwt.secret"),
			Expiration: v.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			GeneratePerMin: v.GetInt("ratelimit.generate_per_min"),
			RenderPerHour:  v.GetInt("ratelimit.render_per_hour"),
		},
		Provider: ProviderConfig{
			Text: strings.ToLower(v.GetString("provider.text")),
		},
		Gemini: GeminiConfig{
			APIKey:      v.GetString("gemini.api_key"),
			BaseURL:     strings.TrimRight(v.GetString("gemini.base_url"), "/"),
			TextModel:   v.GetString("gemini.text_model"),
			ImageModel:  v.GetString("gemini.image_model"),
			SpeechModel: v.GetString("gemini.speech_model"),
			Timeout:     v.GetInt("gemini.timeout"),
		},
		OpenAI: OpenAIConfig{
			APIKey:  v.GetString("openai.api_key"),
			BaseURL: v.GetString("openai.base_url"),
			Model:   v.GetString("openai.model"),
		},
		R2: R2Config{
			AccountID:       v.GetString("r2.account_id"),
			AccessKeyID:     v.GetString("r2.access_key_id"),
			SecretAccessKey: v.GetString("r2.secret_access_key"),
			BucketName:      v.GetString("r2.bucket_name"),
			PublicURL:       strings.TrimRight(v.GetString("r2.public_url"), "/"),
		},
		Orchestration: OrchestrationConfig{
			OperationTimeout:   v.GetInt("orchestration.operation_timeout"),
			BulkEnhancePolicy:  strings.ToLower(v.GetString("orchestration.bulk_enhance_policy")),
			EnhanceConcurrency: v.GetInt("orchestration.enhance_concurrency"),
			SessionTTL:         v.GetInt("orchestration.session_ttl"),
			SampleRate:         v.GetInt("orchestration.sample_rate"),
		},
	}

	return cfg, nil
}
