package config

import (
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver       string
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string
	RedisHost      string
	RedisPort      string
	SessionSecret  string
	JWTSecret      string
	TokenTTLHours  int
	GinMode        string
	ServerPort     string
	UploadDir      string
	MaxUploadFiles int
	RealtimeRelay  bool
	OpenAIAPIKey   string
	LogLevel       string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	return &Config{
		DBDriver:       getEnv("DB_DRIVER", "mysql"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBUser:         getEnv("DB_USER", "taskuser"),
		DBPassword:     getEnv("DB_PASSWORD", "taskpassword"),
		DBName:         getEnv("DB_NAME", "task_tracker"),
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      getEnv("REDIS_PORT", "6379"),
		SessionSecret:  getEnv("SESSION_SECRET", "default-secret-key-change-me"),
		JWTSecret:      getEnv("JWT_SECRET", "default-jwt-secret-change-me"),
		TokenTTLHours:  getEnvInt("TOKEN_TTL_HOURS", 24),
		GinMode:        getEnv("GIN_MODE", "debug"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadFiles: getEnvInt("MAX_UPLOAD_FILES", 5),
		RealtimeRelay:  getEnvBool("REALTIME_RELAY", false),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

// RedisAddr returns host:port for both the session store and the relay.
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}
