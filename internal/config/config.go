package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/elmazzun/jwt-manager/internal/models"
)

type Config struct {
	HTTP_ADDR   string
	LOG_LEVEL   string
	DB_DRIVER   string
	DB_HOST     string
	DB_PORT     string
	DB_USER     string
	DB_PASSWORD string
	DB_NAME     string
	DB_FILE     string

	KAFKA_ADDRESS string
	KAFKA_TOPIC   string

	ES_URL      string
	ES_USER     string
	ES_PASSWORD string

	REDIS_ADDR  string
	LOGIN_LIMIT int
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	config := &Config{
		HTTP_ADDR:     envDefault("HTTP_ADDR", ":8080"),
		LOG_LEVEL:     os.Getenv("LOG_LEVEL"),
		DB_DRIVER:     envDefault("DB_DRIVER", "postgres"),
		DB_HOST:       os.Getenv("DB_HOST"),
		DB_PORT:       os.Getenv("DB_PORT"),
		DB_USER:       os.Getenv("DB_USER"),
		DB_PASSWORD:   os.Getenv("DB_PASSWORD"),
		DB_NAME:       os.Getenv("DB_NAME"),
		DB_FILE:       envDefault("DB_FILE", "jwt-manager.db"),
		KAFKA_ADDRESS: os.Getenv("KAFKA_ADDRESS"),
		KAFKA_TOPIC:   envDefault("KAFKA_TOPIC", "user_events"),
		ES_URL:        os.Getenv("ES_URL"),
		ES_USER:       os.Getenv("ES_USER"),
		ES_PASSWORD:   os.Getenv("ES_PASSWORD"),
		REDIS_ADDR:    os.Getenv("REDIS_ADDR"),
		LOGIN_LIMIT:   envIntDefault("LOGIN_LIMIT", 0),
	}

	return config, nil
}

func InitDB(cfg *Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DB_DRIVER {
	case "sqlite":
		dialector = sqlite.Open(cfg.DB_FILE)
	default:
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=disable",
			cfg.DB_USER, cfg.DB_PASSWORD, cfg.DB_HOST, cfg.DB_PORT, cfg.DB_NAME,
		)
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to DB: %w", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		return nil, fmt.Errorf("migrate users table: %w", err)
	}
	return db, nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
