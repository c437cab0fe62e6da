package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultPort      = 8080
	DefaultAIBaseURL = "https://api.groq.com/openai/v1/"
	DefaultAIModel   = "llama-3.3-70b-versatile"
)

// Store kinds returned by Config.StoreKind.
const (
	StorePostgres = "postgres"
	StoreREST     = "rest"
	StoreNone     = "none"
)

type Config struct {
	Port int `toml:"port"`

	DBHost     string `toml:"db_host"`
	DBPort     int    `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`

	// Hosted store REST endpoint and credential.
	StoreURL string `toml:"store_url"`
	StoreKey string `toml:"store_key"`

	AIKey         string        `toml:"ai_key"`
	AIBaseURL     string        `toml:"ai_base_url"`
	AIModel       string        `toml:"ai_model"`
	AIMaxAttempts int           `toml:"ai_max_attempts"`
	AIRetryDelay  time.Duration `toml:"ai_retry_delay"` // "500ms", "2s"

	JWTSecret   string   `toml:"jwt_secret"`
	CORSOrigins []string `toml:"cors_origins"`
}

// Load reads the optional TOML file named by TASKCHAT_CONFIG, then applies
// environment overrides and defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("TASKCHAT_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setInt(&cfg.Port, "PORT")

	setString(&cfg.DBHost, "DB_HOST")
	setInt(&cfg.DBPort, "DB_PORT")
	setString(&cfg.DBUser, "DB_USER")
	setString(&cfg.DBPassword, "DB_PASSWORD")
	setString(&cfg.DBName, "DB_NAME")

	setString(&cfg.StoreURL, "SUPABASE_URL")
	// service role key wins over the anon key
	setString(&cfg.StoreKey, "SUPABASE_ANON_KEY")
	setString(&cfg.StoreKey, "SUPABASE_SERVICE_ROLE_KEY")

	setString(&cfg.AIKey, "GROQ_API_KEY")
	setString(&cfg.AIBaseURL, "AI_BASE_URL")
	setString(&cfg.AIModel, "AI_MODEL")
	setInt(&cfg.AIMaxAttempts, "AI_MAX_ATTEMPTS")
	if v := strings.TrimSpace(os.Getenv("AI_RETRY_DELAY")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("[WARN] config: ignoring AI_RETRY_DELAY=%q: %v", v, err)
		} else {
			cfg.AIRetryDelay = d
		}
	}

	setString(&cfg.JWTSecret, "JWT_SECRET")
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DBPort == 0 {
		cfg.DBPort = 5432
	}
	if cfg.AIBaseURL == "" {
		cfg.AIBaseURL = DefaultAIBaseURL
	}
	if cfg.AIModel == "" {
		cfg.AIModel = DefaultAIModel
	}
	if cfg.AIMaxAttempts < 1 {
		cfg.AIMaxAttempts = 1
	}
	if cfg.AIRetryDelay <= 0 {
		cfg.AIRetryDelay = time.Second
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	cfg.StoreURL = strings.TrimRight(cfg.StoreURL, "/")
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

// StoreKind reports which task store the config points at. The REST
// endpoint wins when both are configured.
func (c *Config) StoreKind() string {
	switch {
	case c.StoreURL != "":
		return StoreREST
	case c.DBHost != "":
		return StorePostgres
	default:
		return StoreNone
	}
}

func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// keep file value or fall back to default
		log.Printf("[WARN] config: ignoring %s=%q: not an integer", key, v)
		return
	}
	*dst = n
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
