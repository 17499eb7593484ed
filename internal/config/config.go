package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr         string
	MongoURI         string
	MongoDBName      string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string // empty uses AWS
	S3PublicBaseURL  string // empty derives the virtual-hosted bucket URL
	S3ForcePathStyle bool
	SessionSecret    string
	SessionSecure    bool
	AdminEmail       string
	AdminPassword    string
	RabbitURI        string // empty disables content events
	RabbitExchange   string
	ThumbnailWidth   int
	MaxUploadMB      int
	NamingSponsorURL string
	MainSponsorURL   string
	ShutdownTimeout  time.Duration
}

const (
	HTTPAddr          = "HTTP_ADDR"
	MongoURI          = "MONGO_URI"
	MongoDBName       = "MONGO_DB_NAME"
	S3Bucket          = "S3_BUCKET"
	S3Region          = "S3_REGION"
	S3Endpoint        = "S3_ENDPOINT"
	S3PublicBaseURL   = "S3_PUBLIC_BASE_URL"
	S3ForcePathStyle  = "S3_FORCE_PATH_STYLE"
	SessionSecret     = "SESSION_SECRET"
	SessionSecure     = "SESSION_SECURE"
	AdminEmail        = "ADMIN_EMAIL"
	AdminPassword     = "ADMIN_PASSWORD"
	RabbitURIEnv      = "RABBIT_URI"
	RabbitExchangeEnv = "RABBIT_EXCHANGE"
	ThumbnailWidth    = "THUMBNAIL_WIDTH"
	MaxUploadMB       = "MAX_UPLOAD_MB"
	NamingSponsorURL  = "NAMING_SPONSOR_URL"
	MainSponsorURL    = "MAIN_SPONSOR_URL"
	ShutdownTimeout   = "SHUTDOWN_TIMEOUT"
)

// Load reads a .env file when one exists, without overriding variables
// already set, and then builds the Config from the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv()
}

func FromEnv() (Config, error) {
	var cfg Config

	cfg.HTTPAddr = getEnv(HTTPAddr, ":8080")
	cfg.MongoURI = getEnv(MongoURI, "mongodb://localhost:27017/?replicaSet=rs0")
	cfg.MongoDBName = getEnv(MongoDBName, "clubsite")
	cfg.S3Bucket = getEnv(S3Bucket, "club-site-media")
	cfg.S3Region = getEnv(S3Region, "eu-west-1")
	cfg.S3Endpoint = getEnv(S3Endpoint, "")
	cfg.S3PublicBaseURL = getEnv(S3PublicBaseURL, "")
	cfg.SessionSecret = getEnv(SessionSecret, "")
	cfg.AdminEmail = getEnv(AdminEmail, "")
	cfg.AdminPassword = getEnv(AdminPassword, "")
	cfg.RabbitURI = getEnv(RabbitURIEnv, "")
	cfg.RabbitExchange = getEnv(RabbitExchangeEnv, "club.content")
	cfg.NamingSponsorURL = getEnv(NamingSponsorURL, "")
	cfg.MainSponsorURL = getEnv(MainSponsorURL, "")

	var err error
	if cfg.S3ForcePathStyle, err = getEnvBool(S3ForcePathStyle, false); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", S3ForcePathStyle, err)
	}
	if cfg.SessionSecure, err = getEnvBool(SessionSecure, false); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", SessionSecure, err)
	}
	if cfg.ThumbnailWidth, err = getEnvInt(ThumbnailWidth, 400); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", ThumbnailWidth, err)
	}
	if cfg.MaxUploadMB, err = getEnvInt(MaxUploadMB, 32); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", MaxUploadMB, err)
	}
	shutdownStr := getEnv(ShutdownTimeout, "10s")
	if cfg.ShutdownTimeout, err = time.ParseDuration(shutdownStr); err != nil {
		return cfg, fmt.Errorf("invalid %v: %w", ShutdownTimeout, err)
	}

	if len(cfg.SessionSecret) < 32 {
		return cfg, fmt.Errorf("%v must be at least 32 bytes", SessionSecret)
	}
	if cfg.ThumbnailWidth <= 0 {
		return cfg, fmt.Errorf("invalid %v: must be positive", ThumbnailWidth)
	}
	if cfg.MaxUploadMB <= 0 {
		return cfg, fmt.Errorf("invalid %v: must be positive", MaxUploadMB)
	}

	return cfg, nil
}

// MaxUploadBytes bounds one multipart request body.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	return i, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}
