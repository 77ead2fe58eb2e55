package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all server configuration, loaded from environment variables.
type Config struct {
	Port         int
	DatabasePath string
	LogDirectory string

	ModelPath   string
	OnnxLibPath string

	MediaDirectory string
	MediaBaseURL   string
	MaxUploadSize  int64

	JWTSecret            string
	JWTExpirationMinutes int

	InferenceWorkers    int
	StoreTimeoutSeconds int

	GeocoderURL       string
	GeocoderUserAgent string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:         getEnvAsInt("PORT", 3001),
		DatabasePath: getEnv("DATABASE_PATH", filepath.Join("data", "roadwatch.db")),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),

		ModelPath:   getEnv("MODEL_PATH", filepath.Join("models", "accident_detector.onnx")),
		OnnxLibPath: getEnv("ONNX_LIB_PATH", filepath.Join("models", "libonnxruntime.so")),

		MediaDirectory: getEnv("MEDIA_DIR", filepath.Join("data", "media")),
		MediaBaseURL:   getEnv("MEDIA_BASE_URL", "/media"),
		MaxUploadSize:  getEnvAsInt64("MAX_UPLOAD_SIZE", 10<<20),

		JWTSecret:            getEnv("JWT_SECRET_KEY", "change-me"),
		JWTExpirationMinutes: getEnvAsInt("JWT_EXPIRATION_MINUTES", 30),

		InferenceWorkers:    getEnvAsInt("INFERENCE_WORKERS", 2),
		StoreTimeoutSeconds: getEnvAsInt("STORE_TIMEOUT_SECONDS", 5),

		GeocoderURL:       getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "roadwatch"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
