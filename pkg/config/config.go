package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Log      LogConfig
	Upload   UploadConfig
	Email    EmailConfig
	Search   SearchConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins string
	StaticDir   string // prebuilt frontend, optional
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type LogConfig struct {
	Level  string
	Format string // text | json
}

type UploadConfig struct {
	Backend       string // local | s3
	Dir           string
	PublicURL     string
	MaxFileSize   int64
	MaxFiles      int
	SweepSchedule string // cron spec, empty disables the sweeper
	SweepAge      time.Duration
	S3            S3Config
}

type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
}

type EmailConfig struct {
	ResendAPIKey string
	From         string
}

type SearchConfig struct {
	Snapshot bool
}

type AdminConfig struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

func Load() *Config {
	godotenv.Load() // .env is optional

	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "3000"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			StaticDir:   getEnv("STATIC_DIR", ""),
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "pg_finder"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "change-me"),
			TTL:    getDuration("JWT_TTL", 24*time.Hour),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Upload: UploadConfig{
			Backend:       strings.ToLower(getEnv("UPLOAD_BACKEND", "local")),
			Dir:           getEnv("UPLOAD_DIR", "./uploads"),
			PublicURL:     strings.TrimRight(getEnv("UPLOAD_URL", "http://localhost:3000/uploads"), "/"),
			MaxFileSize:   getInt64("UPLOAD_MAX_FILE_SIZE", 5*1024*1024),
			MaxFiles:      int(getInt64("UPLOAD_MAX_FILES", 5)),
			SweepSchedule: getEnv("UPLOAD_SWEEP_SCHEDULE", ""),
			SweepAge:      getDuration("UPLOAD_SWEEP_AGE", 48*time.Hour),
			S3: S3Config{
				Bucket:    getEnv("S3_BUCKET", ""),
				Region:    getEnv("S3_REGION", "auto"),
				Endpoint:  getEnv("S3_ENDPOINT", ""),
				AccessKey: getEnv("S3_ACCESS_KEY", ""),
				SecretKey: getEnv("S3_SECRET_KEY", ""),
				PublicURL: strings.TrimRight(getEnv("S3_PUBLIC_URL", ""), "/"),
			},
		},
		Email: EmailConfig{
			ResendAPIKey: getEnv("RESEND_API_KEY", ""),
			From:         getEnv("EMAIL_FROM", "PG/Flat Finder <noreply@pgfinder.local>"),
		},
		Search: SearchConfig{
			Snapshot: getBool("SEARCH_SNAPSHOT", false),
		},
		Admin: AdminConfig{
			Name:     getEnv("ADMIN_NAME", "Administrator"),
			Email:    getEnv("ADMIN_EMAIL", ""),
			Phone:    getEnv("ADMIN_PHONE", "9000000000"),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return "host=" + d.Host +
		" port=" + d.Port +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.DBName +
		" sslmode=disable"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if v, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
