package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerAddr string `yaml:"server_addr"`
	AppEnv     string `yaml:"app_env"`
	LogDir     string `yaml:"log_dir"`

	JWTSecret string `yaml:"-"`

	LLMProvider    string  `yaml:"llm_provider"`
	LLMAPIKey      string  `yaml:"-"`
	LLMBaseURL     string  `yaml:"llm_base_url"`
	LLMModel       string  `yaml:"llm_model"`
	LLMTemperature float64 `yaml:"llm_temperature"`
	LLMTopP        float64 `yaml:"llm_top_p"`

	SearchProvider    string        `yaml:"search_provider"`
	SearchAPIKey      string        `yaml:"-"`
	SearchResultLimit int           `yaml:"search_result_limit"`
	SearchCache       string        `yaml:"search_cache"`
	SearchCacheTTL    time.Duration `yaml:"search_cache_ttl"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"-"`
	RedisDB       int    `yaml:"redis_db"`

	MinIOEndpoint  string `yaml:"minio_endpoint"`
	MinIOAccessKey string `yaml:"-"`
	MinIOSecretKey string `yaml:"-"`
	MinIOBucket    string `yaml:"minio_bucket"`

	StoreBackend string `yaml:"store_backend"`
	DBUser       string `yaml:"db_user"`
	DBPassword   string `yaml:"-"`
	DBHost       string `yaml:"db_host"`
	DBPort       string `yaml:"db_port"`
	DBName       string `yaml:"db_name"`
	MongoURI     string `yaml:"mongo_uri"`
	MongoDB      string `yaml:"mongo_db"`

	PromptsFile string `yaml:"prompts_file"`
}

const geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"

func defaults() Config {
	return Config{
		ServerAddr:        ":8000",
		AppEnv:            "development",
		LogDir:            "./logs",
		LLMProvider:       "openai",
		LLMBaseURL:        geminiBaseURL,
		LLMModel:          "gemini-1.5-pro",
		LLMTemperature:    0.7,
		LLMTopP:           0.8,
		SearchProvider:    "serpapi",
		SearchResultLimit: 3,
		SearchCache:       "none",
		SearchCacheTTL:    time.Hour,
		RedisAddr:         "localhost:6379",
		MinIOBucket:       "zemon-search",
		StoreBackend:      "postgres",
		DBPort:            "5432",
		MongoDB:           "zemon",
	}
}

// LoadConfig reads .env (if present), then the optional YAML file named by
// CONFIG_FILE, then the environment. Later sources win.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			fmt.Fprintln(os.Stderr, "config file ignored:", err)
		}
	}

	cfg.ServerAddr = getEnv("SERVER_ADDR", cfg.ServerAddr)
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogDir = getEnv("LOG_DIR", cfg.LogDir)
	cfg.JWTSecret = getEnv("JWT_SECRET", "")

	cfg.LLMProvider = getEnv("LLM_PROVIDER", cfg.LLMProvider)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", getEnv("GEMINI_API_KEY", ""))
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	// the ollama client falls back to its local endpoint
	if cfg.LLMProvider == "ollama" && cfg.LLMBaseURL == geminiBaseURL {
		cfg.LLMBaseURL = ""
	}
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.LLMTemperature = getEnvFloat("LLM_TEMPERATURE", cfg.LLMTemperature)
	cfg.LLMTopP = getEnvFloat("LLM_TOP_P", cfg.LLMTopP)

	cfg.SearchProvider = getEnv("SEARCH_PROVIDER", cfg.SearchProvider)
	cfg.SearchAPIKey = getEnv("SEARCH_API_KEY", getEnv("SERP_API_KEY", ""))
	cfg.SearchResultLimit = getEnvInt("SEARCH_RESULT_LIMIT", cfg.SearchResultLimit)
	cfg.SearchCache = getEnv("SEARCH_CACHE", cfg.SearchCache)
	cfg.SearchCacheTTL = getEnvDuration("SEARCH_CACHE_TTL", cfg.SearchCacheTTL)

	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)

	cfg.MinIOEndpoint = getEnv("MINIO_ENDPOINT", cfg.MinIOEndpoint)
	cfg.MinIOAccessKey = getEnv("MINIO_ACCESS_KEY", "")
	cfg.MinIOSecretKey = getEnv("MINIO_SECRET_KEY", "")
	cfg.MinIOBucket = getEnv("MINIO_BUCKET", cfg.MinIOBucket)

	cfg.StoreBackend = getEnv("STORE_BACKEND", cfg.StoreBackend)
	cfg.DBUser = getEnv("DB_USER", cfg.DBUser)
	cfg.DBPassword = getEnv("DB_PASSWORD", "")
	cfg.DBHost = getEnv("DB_HOST", cfg.DBHost)
	cfg.DBPort = getEnv("DB_PORT", cfg.DBPort)
	cfg.DBName = getEnv("DB_NAME", cfg.DBName)
	cfg.MongoURI = getEnv("MONGO_URI", cfg.MongoURI)
	cfg.MongoDB = getEnv("MONGO_DB", cfg.MongoDB)

	cfg.PromptsFile = getEnv("PROMPTS_FILE", cfg.PromptsFile)
	return cfg
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Validate reports missing secrets the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	switch c.LLMProvider {
	case "openai":
		if c.LLMAPIKey == "" {
			errs = append(errs, errors.New("LLM_API_KEY is required for the openai provider"))
		}
	case "ollama":
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}
	switch c.SearchProvider {
	case "serpapi":
		if c.SearchAPIKey == "" {
			errs = append(errs, errors.New("SEARCH_API_KEY is required for the serpapi provider"))
		}
	case "duckduckgo":
	default:
		errs = append(errs, fmt.Errorf("unknown SEARCH_PROVIDER %q", c.SearchProvider))
	}
	switch c.StoreBackend {
	case "postgres", "mongo":
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	return errors.Join(errs...)
}

func (c Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
