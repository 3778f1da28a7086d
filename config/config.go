package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	JWTSecret  string
	Database   DatabaseConfig
	Catalog    CatalogConfig
	Events     EventsConfig
	Covers     CoversConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	UseSSL   bool
}

// CatalogConfig points at the external book catalog service.
type CatalogConfig struct {
	BaseURL string
}

// EventsConfig selects the broker used for book events.
// Backend is one of "none", "rabbitmq", or "pubsub".
type EventsConfig struct {
	Backend  string
	Channel  string
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL           string
	QueueDurable  bool
	PrefetchCount int
}

type PubSubConfig struct {
	ProjectID          string
	CredentialsFile    string
	SubscriptionSuffix string
}

// CoversConfig selects the object storage used for archived cover images.
// Backend is one of "none", "minio", or "gcs".
type CoversConfig struct {
	Backend string
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GCSConfig struct {
	Bucket          string
	ProjectID       string
	CredentialsFile string
}

func LoadConfig() Config {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "booknest"),
		Password: getEnv("DB_PASSWORD", "password"),
		DBName:   getEnv("DB_NAME", "booknest_db"),
		UseSSL:   getEnvBool("DB_USE_SSL", false),
	}

	eventsConfig := EventsConfig{
		Backend: getEnv("EVENTS_BACKEND", "none"),
		Channel: getEnv("EVENTS_CHANNEL", "book-events"),
		RabbitMQ: RabbitMQConfig{
			URL:           getEnv("RABBITMQ_URL", ""),
			QueueDurable:  getEnvBool("RABBITMQ_QUEUE_DURABLE", true),
			PrefetchCount: getEnvInt("RABBITMQ_PREFETCH_COUNT", 1),
		},
		PubSub: PubSubConfig{
			ProjectID:          getEnv("PUBSUB_PROJECT_ID", ""),
			CredentialsFile:    getEnv("PUBSUB_CREDENTIALS_FILE", ""),
			SubscriptionSuffix: getEnv("PUBSUB_SUBSCRIPTION_SUFFIX", "-sub"),
		},
	}

	coversConfig := CoversConfig{
		Backend: getEnv("COVERS_BACKEND", "none"),
		Minio: MinioConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", "book-covers"),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		GCS: GCSConfig{
			Bucket:          getEnv("GCS_BUCKET", ""),
			ProjectID:       getEnv("GCS_PROJECT_ID", ""),
			CredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),
		},
	}

	return Config{
		ServerPort: getEnvInt("SERVER_PORT", 8080),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		Database:   dbConfig,
		Catalog:    CatalogConfig{BaseURL: getEnv("CATALOG_BASE_URL", "https://www.googleapis.com/books/v1")},
		Events:     eventsConfig,
		Covers:     coversConfig,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		var value int
		fmt.Sscanf(valueStr, "%d", &value)
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		return value == "true" || value == "1"
	}
	return defaultValue
}
