package env

import (
	"os"
)

const (
	AWSRegion        = "AWS_REGION"
	AWSID            = "AWS_ID"
	AWSSecret        = "AWS_SECRET"
	AWSToken         = "AWS_TOKEN"
	DynamoDBEndpoint = "DYNAMODB_ENDPOINT"
	AgentSecretKey   = "AGENT_SECRET"
	ChatRedisURL     = "CHAT_REDIS_URL"
	ChatRedisPass    = "CHAT_REDIS_PASS"
	KafkaBrokers     = "KAFKA_BROKERS"
	KafkaTicketTopic = "KAFKA_TICKET_TOPIC"
	MinioEndpoint    = "MINIO_ENDPOINT"
	MinioAccessKey   = "MINIO_ACCESS_KEY"
	MinioSecretKey   = "MINIO_SECRET_KEY"
	MinioBucket      = "MINIO_BUCKET"
	MinioUseSSL      = "MINIO_USE_SSL"
	SupportAPIURL    = "SUPPORT_API_URL"
	WSAgentURL       = "WS_AGENT_URL"
	AgentToken       = "AGENT_TOKEN"
	WebUrl           = "WEB_URL"
)

// Require panics when any of the given variables is unset. Servers call it
// once at startup so a misconfigured deployment fails fast instead of at the
// first request.
func Require(keys ...string) {
	for _, key := range keys {
		if os.Getenv(key) == "" {
			panic("env: required environment variable not set: " + key)
		}
	}
}

func Get(key string) string {
	return os.Getenv(key)
}

func GetOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func MustGet(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic("env: required environment variable not set: " + key)
	}
	return val
}
