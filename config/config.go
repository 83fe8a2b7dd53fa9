package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	HTTPAddr string

	DBPath   string // Path to the SQLite database file
	MusicDir string // Managed directory for audio files
	CoverDir string // Managed directory for extracted/uploaded cover art

	MaxUploadBytes int64 // Upload size limit for a single audio file

	JWTSecret string

	// Sliding-window rate limiting, per client address.
	RateLimit         int
	RateWindowSeconds int

	// Watch the music directory and index new files in the background.
	WatchMusicDir bool

	LogLevel  string
	LogPath   string // Empty disables the file sink
	LogMaxMB  int
	LogMaxAge int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	dataBase := getEnv("DATA_DIR", "data")

	return &Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", filepath.Join(dataBase, "melodex.sqlite")),
		MusicDir:          getEnv("MUSIC_DIR", filepath.Join(dataBase, "music")),
		CoverDir:          getEnv("COVER_DIR", filepath.Join(dataBase, "covers")),
		MaxUploadBytes:    int64(getEnvInt("MAX_UPLOAD_MB", 100)) << 20,
		JWTSecret:         getEnv("JWT_SECRET", "melodex-dev-secret"),
		RateLimit:         getEnvInt("RATE_LIMIT", 120),
		RateWindowSeconds: getEnvInt("RATE_WINDOW_SECONDS", 60),
		WatchMusicDir:     getEnvBool("WATCH_MUSIC_DIR", false),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogPath:           getEnv("LOG_PATH", ""),
		LogMaxMB:          getEnvInt("LOG_MAX_MB", 100),
		LogMaxAge:         getEnvInt("LOG_MAX_AGE_DAYS", 28),
	}
}
