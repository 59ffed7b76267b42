package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the dispatch server and the
// on-vehicle agent. Each binary reads only the sections it needs.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	NewRelic   NewRelicConfig
	Kafka      KafkaConfig
	Auth       AuthConfig
	Log        LogConfig
	Tracking   TrackingConfig
	Directions DirectionsConfig
	Geocode    GeocodeConfig
	Agent      AgentConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// KafkaConfig holds the position stream producer configuration.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Enabled bool
}

// AuthConfig holds driver token verification settings.
type AuthConfig struct {
	JWTSecret string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string
}

// TrackingConfig holds position sampling settings.
type TrackingConfig struct {
	SampleInterval time.Duration
	AnnotateEvery  time.Duration
	StartupGrace   time.Duration
}

// DirectionsConfig holds route resolution settings.
type DirectionsConfig struct {
	BaseURL string
	APIKey  string
}

// GeocodeConfig holds reverse-geocoding provider settings.
type GeocodeConfig struct {
	NominatimURL string
	FormattedURL string
	FormattedKey string
}

// AgentConfig holds on-vehicle agent settings.
type AgentConfig struct {
	ServerURL   string
	TrackURL    string
	DriverID    string
	AmbulanceID string
	Token       string
	Port        string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "ambulance_dispatch"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "ambulance-dispatch"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Kafka: KafkaConfig{
			Brokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},
			Topic:   getEnv("KAFKA_POSITION_TOPIC", "ambulance.positions"),
			Enabled: getBoolEnv("KAFKA_ENABLED", false),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracking: TrackingConfig{
			SampleInterval: getDurationEnv("TRACKING_SAMPLE_INTERVAL", 5*time.Second),
			AnnotateEvery:  getDurationEnv("TRACKING_ANNOTATE_EVERY", 30*time.Second),
			StartupGrace:   getDurationEnv("TRACKING_STARTUP_GRACE", 30*time.Second),
		},
		Directions: DirectionsConfig{
			BaseURL: getEnv("DIRECTIONS_BASE_URL", "https://maps.googleapis.com"),
			APIKey:  getEnv("DIRECTIONS_API_KEY", ""),
		},
		Geocode: GeocodeConfig{
			NominatimURL: getEnv("GEOCODE_NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			FormattedURL: getEnv("GEOCODE_FORMATTED_URL", ""),
			FormattedKey: getEnv("GEOCODE_FORMATTED_KEY", ""),
		},
		Agent: AgentConfig{
			ServerURL:   getEnv("AGENT_SERVER_URL", "http://localhost:8080"),
			TrackURL:    getEnv("AGENT_TRACK_URL", "ws://localhost:8080/v1/track"),
			DriverID:    getEnv("AGENT_DRIVER_ID", ""),
			AmbulanceID: getEnv("AGENT_AMBULANCE_ID", ""),
			Token:       getEnv("AGENT_TOKEN", ""),
			Port:        getEnv("AGENT_PORT", "8090"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
