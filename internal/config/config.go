package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/store"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Store        store.Config
	DataPath     string
	LogDir       string
	CacheDir     string
	MappingsPath string

	Venue             string
	EnableHistograms  bool
	AncillaryLookback time.Duration
	// PublishURI is an optional s3:// or gs:// prefix rendered reports are copied to.
	PublishURI string
}

// Load loads the configuration from .env files and environment variables.
func Load() (*AppConfig, error) {
	// Binary-relative .env first, then the working directory for development runs.
	exePath, err := os.Executable()
	exeDir := ""
	if err == nil {
		exeDir = filepath.Dir(exePath)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found in working directory, relying on environment variables or binary-relative .env")
	}

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		if exeDir != "" {
			dataPath = exeDir
		} else {
			dataPath = "."
		}
	}

	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		log.Warn().Err(err).Str("path", cacheDir).Msg("Failed to create cache directory")
	}

	pageSize, _ := strconv.Atoi(getEnv("ES_PAGE_SIZE", "10000"))

	cfg := &AppConfig{
		Store: store.Config{
			Backend:       getEnv("DOCSTORE", "elasticsearch"),
			URL:           getEnv("ES_URL", "http://localhost:9200"),
			Username:      getEnv("ES_USERNAME", ""),
			Password:      getEnv("ES_PASSWORD", ""),
			Dir:           getEnv("DOCSTORE_DIR", filepath.Join(cacheDir, "docstore")),
			ScrollTimeout: getEnv("ES_SCROLL_TIMEOUT", "30s"),
			PageSize:      pageSize,
		},
		DataPath:          dataPath,
		LogDir:            logDir,
		CacheDir:          cacheDir,
		MappingsPath:      getEnv("BACH_MAPPINGS", ""),
		Venue:             getEnv("BACH_VENUE", "local"),
		EnableHistograms:  getEnvBool("ENABLE_HISTOGRAMS", true),
		AncillaryLookback: getEnvDuration("ANCILLARY_LOOKBACK", 24*time.Hour),
		PublishURI:        getEnv("REPORT_PUBLISH_URI", ""),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration, using default")
	}
	return fallback
}
