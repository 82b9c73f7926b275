package config

import "time"

// Member definition member_service YAML structure
type Member struct {
	Port       string        `mapstructure:"port"`
	IP         string        `mapstructure:"ip"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	PostgreSQL  DatabaseConfig `mapstructure:"pg"`
	RedisMember RedisConfig    `mapstructure:"redis"`
}

// Chat definition chat_service YAML structure
type Chat struct {
	Port     string
	MongoSQL DatabaseConfig `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

// RedisConfig definition redis setting
// Addr 只在没有 sentinel 时使用
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	RedisDB int    `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Bucket        string `mapstructure:"bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryInterval int      `mapstructure:"retry_interval"`
	RetryCount    int      `mapstructure:"retry_count"`
}
