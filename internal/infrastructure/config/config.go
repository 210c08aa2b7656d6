// internal/infrastructure/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Feed
	DZID         string
	FeedBaseURL  string
	FeedVersion  string
	FeedTimezone string
	Latitude     float64
	Longitude    float64
	FetchTimeout time.Duration
	RequestRPS   float64
	UserAgent    string

	// Schedule
	ActiveInterval time.Duration
	NightInterval  time.Duration
	BoostInterval  time.Duration
	BoostWindow    time.Duration

	// Relational store
	DBDriver string
	DBDSN    string

	// MongoDB snapshot archive, disabled when MongoURI is empty
	MongoURI              string
	MongoDB               string
	MongoUser             string
	MongoPassword         string
	SnapshotRetentionDays int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "3001"),
		ReadTimeout:  getEnvAsSeconds("READ_TIMEOUT", 30),
		WriteTimeout: getEnvAsSeconds("WRITE_TIMEOUT", 30),

		DZID:         getEnv("DZ_ID", "2351"),
		FeedBaseURL:  strings.TrimRight(getEnv("FEED_BASE_URL", "https://dzm.burblesoft.eu"), "/"),
		FeedVersion:  strings.ToLower(getEnv("FEED_VERSION", "json")),
		FeedTimezone: getEnv("FEED_TIMEZONE", "Europe/Amsterdam"),
		Latitude:     getEnvAsFloat("LATITUDE", 52.4583),
		Longitude:    getEnvAsFloat("LONGITUDE", 5.5208),
		FetchTimeout: getEnvAsSeconds("FETCH_TIMEOUT", 15),
		RequestRPS:   getEnvAsFloat("REQUEST_RPS", 0.5),
		UserAgent: getEnv("USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"),

		ActiveInterval: getEnvAsSeconds("ACTIVE_INTERVAL", 150),
		NightInterval:  getEnvAsSeconds("NIGHT_INTERVAL", 1800),
		BoostInterval:  getEnvAsSeconds("BOOST_INTERVAL", 150),
		BoostWindow:    getEnvAsSeconds("BOOST_WINDOW", 1800),

		DBDriver: strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:    getEnv("DB_DSN", "loads.db"),

		MongoURI:              getEnv("MONGODB_DSN", ""),
		MongoDB:               getEnv("MONGO_DB", "skybox"),
		MongoUser:             getEnv("MONGO_USER", ""),
		MongoPassword:         getEnv("MONGO_PASSWORD", ""),
		SnapshotRetentionDays: getEnvAsInt("SNAPSHOT_RETENTION_DAYS", 14),
	}

	return config, nil
}

// Location resolves FeedTimezone. The second result is false when the zone is
// unknown and UTC was used instead.
func (c *Config) Location() (*time.Location, bool) {
	loc, err := time.LoadLocation(c.FeedTimezone)
	if err != nil {
		return time.UTC, false
	}
	return loc, true
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsSeconds reads a duration in whole seconds. Zero or negative values
// fall back to the default.
func getEnvAsSeconds(key string, defaultSeconds int) time.Duration {
	seconds := getEnvAsInt(key, defaultSeconds)
	if seconds <= 0 {
		seconds = defaultSeconds
	}
	return time.Duration(seconds) * time.Second
}
