package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string
	AIAPIKey     string
	EmbedModel   string
	EmbedDim     int
	EmbedBatch   int
	ChunkSize    int
	ChunkOverlap int
	ChunkMethod  string
	Collection   string
	Port         string
}

// LoadConfig loads the environment variables and return config.
// DATABASE_URL and GEMINI_API_KEY may both be empty: the app then runs
// with the in-memory store and deterministic embeddings.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "vectora-docs"),
		AIAPIKey:     getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),
		// text-embedding-004 returns 768-dim vectors; EMBED_DIM sizes the
		// pgvector column and the mock fallback, so the defaults must agree.
		EmbedDim:     getEnvInt("EMBED_DIM", 768),
		EmbedBatch:   getEnvInt("EMBED_BATCH", 20),
		ChunkSize:    getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),
		ChunkMethod:  getEnv("CHUNK_STRATEGY", "semantic"),
		Collection:   getEnv("DEFAULT_COLLECTION", "default"),
		Port:         getEnv("PORT", "8080"),
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}
