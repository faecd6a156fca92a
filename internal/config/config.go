package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Ai       AIConfig
	Gateway  GatewayConfig
	Hub      HubConfig
	Progress ProgressConfig
	Pipeline PipelineConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JWTSecret          string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	// NotifyEmail receives grading outcome mail. Empty disables mail.
	NotifyEmail string
}

type AIConfig struct {
	LLMProvider string // "ollama", "huggingface"
	LLMModel    string // e.g. "llama3", "qwen2.5"
	BaseURL     string
	APIKey      string
}

// GatewayConfig bounds outbound LLM traffic: admission windows,
// client pool, retry policy, response cache and the fast-path budget.
type GatewayConfig struct {
	RequestsPerMinute  int
	RequestsPerHour    int
	PoolSize           int
	PoolMaxOverflow    int
	PoolAcquireTimeout time.Duration
	MaxRetries         int
	RetryBaseDelay     time.Duration
	RetryMaxDelay      time.Duration
	CallTimeout        time.Duration
	CacheSize          int
	CacheTTL           time.Duration
	FastPathTimeout    time.Duration
	FastPathCharBudget int
}

type HubConfig struct {
	PingInterval    time.Duration
	PongTimeout     time.Duration
	MessageTTL      time.Duration
	QueueSize       int
	DeliveryRetries int
	DisconnectGrace time.Duration
	SweepInterval   time.Duration
}

type ProgressConfig struct {
	RetentionWindow time.Duration
	CleanupInterval time.Duration
}

// PipelineConfig sizes the async grading worker pool and names the
// internal bus topic carrying queued grading jobs.
type PipelineConfig struct {
	Workers  int
	JobTopic string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			JWTSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", ""),
			Port:        getEnvAsInt("SMTP_PORT", 587),
			Email:       getEnv("SMTP_EMAIL", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			SenderName:  getEnv("SMTP_SENDER_NAME", "GradeWise"),
			NotifyEmail: getEnv("SMTP_NOTIFY_EMAIL", ""),
		},
		Ai: AIConfig{
			LLMProvider: getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:    getEnv("LLM_MODEL", "llama3"),
			BaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			APIKey:      getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Gateway: GatewayConfig{
			RequestsPerMinute:  getEnvAsInt("LLM_REQUESTS_PER_MINUTE", 30),
			RequestsPerHour:    getEnvAsInt("LLM_REQUESTS_PER_HOUR", 600),
			PoolSize:           getEnvAsInt("LLM_POOL_SIZE", 5),
			PoolMaxOverflow:    getEnvAsInt("LLM_POOL_MAX_OVERFLOW", 3),
			PoolAcquireTimeout: getEnvAsSeconds("LLM_POOL_ACQUIRE_TIMEOUT_SECONDS", 10),
			MaxRetries:         getEnvAsInt("LLM_MAX_RETRIES", 3),
			RetryBaseDelay:     getEnvAsSeconds("LLM_RETRY_BASE_DELAY_SECONDS", 1),
			RetryMaxDelay:      getEnvAsSeconds("LLM_RETRY_MAX_DELAY_SECONDS", 30),
			CallTimeout:        getEnvAsSeconds("LLM_CALL_TIMEOUT_SECONDS", 60),
			CacheSize:          getEnvAsInt("LLM_CACHE_SIZE", 500),
			CacheTTL:           getEnvAsSeconds("LLM_CACHE_TTL_SECONDS", 3600),
			FastPathTimeout:    getEnvAsSeconds("FASTPATH_TIMEOUT_SECONDS", 25),
			FastPathCharBudget: getEnvAsInt("FASTPATH_CHAR_BUDGET", 6000),
		},
		Hub: HubConfig{
			PingInterval:    getEnvAsSeconds("WS_PING_INTERVAL_SECONDS", 25),
			PongTimeout:     getEnvAsSeconds("WS_PONG_TIMEOUT_SECONDS", 60),
			MessageTTL:      getEnvAsSeconds("WS_MESSAGE_TTL_SECONDS", 300),
			QueueSize:       getEnvAsInt("WS_QUEUE_SIZE", 100),
			DeliveryRetries: getEnvAsInt("WS_DELIVERY_RETRIES", 3),
			DisconnectGrace: getEnvAsSeconds("WS_DISCONNECT_GRACE_SECONDS", 120),
			SweepInterval:   getEnvAsSeconds("WS_SWEEP_INTERVAL_SECONDS", 30),
		},
		Progress: ProgressConfig{
			RetentionWindow: getEnvAsSeconds("PROGRESS_RETENTION_SECONDS", 7*24*3600),
			CleanupInterval: getEnvAsSeconds("PROGRESS_CLEANUP_INTERVAL_SECONDS", 3600),
		},
		Pipeline: PipelineConfig{
			Workers:  getEnvAsInt("PIPELINE_WORKERS", 4),
			JobTopic: getEnv("PIPELINE_JOB_TOPIC", "grading_jobs"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsSeconds(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback)) * time.Second
}
