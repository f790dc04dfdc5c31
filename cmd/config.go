package main

import "time"

type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	LogLevel          string        `env:"LOG_LEVEL,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	RedisAddr         string        `env:"REDIS_ADDR,required=true"`
	RelayKey          string        `env:"RELAY_KEY,required=true"`
	RelaySecret       string        `env:"RELAY_SECRET,required=true"`
	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	DeliveryDelay     time.Duration `env:"DELIVERY_DELAY,default=1s"`
	DeliveryQueueSize int           `env:"DELIVERY_QUEUE_SIZE,default=256"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	// Blob storage is optional; avatar upload is disabled when the
	// endpoint is empty.
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL,default=false"`
	MinioBucket    string `env:"MINIO_BUCKET,default=avatars"`
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`
}
