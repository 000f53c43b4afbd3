package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	MinIO       MinIOConfig
	SMTP        SMTPConfig
	Certificate CertificateConfig
	Upload      UploadConfig
	Seed        SeedConfig
}

type AppConfig struct {
	Port        string
	Env         string
	URL         string // base URL publik backend, dipakai untuk link verifikasi QR
	FrontendURL string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret          string
	ExpireHours     int
	RefreshExpHours int
}

type MinIOConfig struct {
	Endpoint string
	User     string
	Password string
	Bucket   string
	UseSSL   bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type CertificateConfig struct {
	IssuerName       string
	IssuerTitle      string
	BatchConcurrency int
	DeliveryLock     time.Duration
}

type UploadConfig struct {
	MaxSignatureSize int64
	MaxTemplateSize  int64
}

// SeedConfig akun admin pertama, hanya dibuat jika tabel admins kosong
type SeedConfig struct {
	AdminUsername string
	AdminPassword string
}

func Load() *Config {
	// Load .env jika ada (development), di production pakai env variable langsung
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	jwtExpire, _ := strconv.Atoi(getEnv("JWT_EXPIRE_HOURS", "24"))
	jwtRefreshExpire, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRE_HOURS", "168"))
	minioSSL, _ := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))

	return &Config{
		App: AppConfig{
			Port:        getEnv("APP_PORT", "8080"),
			Env:         getEnv("APP_ENV", "development"),
			URL:         getEnv("APP_URL", "http://localhost:8080"),
			FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "sertifikat_user"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "sertifikat_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:          getEnv("JWT_SECRET", "change-this-secret"),
			ExpireHours:     jwtExpire,
			RefreshExpHours: jwtRefreshExpire,
		},
		MinIO: MinIOConfig{
			Endpoint: getEnv("MINIO_ENDPOINT", "localhost:9000"),
			User:     getEnv("MINIO_USER", "minioadmin"),
			Password: getEnv("MINIO_PASSWORD", "minioadmin123"),
			Bucket:   getEnv("MINIO_BUCKET", "sertifikat"),
			UseSSL:   minioSSL,
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", ""),
		},
		Certificate: CertificateConfig{
			IssuerName:       getEnv("CERT_ISSUER_NAME", "Panitia Penyelenggara"),
			IssuerTitle:      getEnv("CERT_ISSUER_TITLE", "Ketua Panitia"),
			BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 4),
			DeliveryLock:     time.Duration(getEnvInt("DELIVERY_LOCK_SECONDS", 120)) * time.Second,
		},
		Upload: UploadConfig{
			MaxSignatureSize: int64(getEnvInt("MAX_SIGNATURE_SIZE", 2*1024*1024)),
			MaxTemplateSize:  int64(getEnvInt("MAX_TEMPLATE_SIZE", 5*1024*1024)),
		},
		Seed: SeedConfig{
			AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
			AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		},
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt mengembalikan fallback jika nilai kosong, bukan angka, atau <= 0
func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
