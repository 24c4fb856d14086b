package config

import "time"

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover-api"`
	Port                          int      `env:"PORT" env-default:"3004"`
	Version                       string   `env:"APP_VERSION" env-default:"dev"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"10"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"10"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE"`

	// PostgreSQL
	DatabaseDriver              string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                string        `env:"DB_HOST" env-default:""`
	DatabasePort                string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName            string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword            string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                string        `env:"DB_NAME" env-default:"clover"`
	DatabaseSSLMode             string        `env:"DB_SQL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns        int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns        int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime     time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	DatabaseMigrationFolderPath string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`

	// Auth
	AuthEnabled   bool   `env:"AUTH_ENABLED" env-default:"false"`
	AuthIssuerURL string `env:"AUTH_ISSUER_URL" env-default:""`
	AuthClientID  string `env:"AUTH_CLIENT_ID" env-default:""`

	// Kafka Producer (lifecycle events)
	EventsEnabled     bool     `env:"EVENTS_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaOutputTopic  string   `env:"KAFKA_OUTPUT_TOPIC" env-default:"request-events"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Redis (vote toggle rate limiting)
	RateLimitEnabled     bool          `env:"RATE_LIMIT_ENABLED" env-default:"false"`
	RedisHost            string        `env:"REDIS_HOST" env-default:"localhost"`
	RedisPort            int           `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword        string        `env:"REDIS_PASSWORD" env-default:""`
	RedisDB              int           `env:"REDIS_DB" env-default:"0"`
	RateLimitToggles     int64         `env:"RATE_LIMIT_TOGGLES" env-default:"30"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW" env-default:"1m"`

	// Similarity
	SimilarityCandidateLimit int     `env:"SIMILARITY_CANDIDATE_LIMIT" env-default:"50"`
	SimilarityMaxSuggestions int     `env:"SIMILARITY_MAX_SUGGESTIONS" env-default:"5"`
	SimilarityMinScore       float64 `env:"SIMILARITY_MIN_SCORE" env-default:"0.35"`

	// Tracing
	TracingServiceName  string `env:"TRACING_SERVICE_NAME" env-default:"clover"`
	TracingOTLPEndpoint string `env:"TRACING_OTLP_ENDPOINT" env-default:""`
	TracingOTLPProtocol string `env:"TRACING_OTLP_PROTOCOL" env-default:"grpc"`
	TracingOTLPInsecure bool   `env:"TRACING_OTLP_INSECURE" env-default:"true"`
}
