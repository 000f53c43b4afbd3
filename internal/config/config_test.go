package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BATCH_CONCURRENCY", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("DELIVERY_LOCK_SECONDS", "")

	cfg := Load()

	if cfg.App.Port != "8080" {
		t.Errorf("port: got %q", cfg.App.Port)
	}
	if cfg.SMTP.Port != 587 {
		t.Errorf("smtp port: got %d", cfg.SMTP.Port)
	}
	if cfg.Certificate.BatchConcurrency != 4 {
		t.Errorf("batch concurrency: got %d", cfg.Certificate.BatchConcurrency)
	}
	if cfg.Certificate.DeliveryLock != 120*time.Second {
		t.Errorf("delivery lock: got %s", cfg.Certificate.DeliveryLock)
	}
	if cfg.Upload.MaxSignatureSize != 2*1024*1024 {
		t.Errorf("max signature size: got %d", cfg.Upload.MaxSignatureSize)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("BATCH_CONCURRENCY", "10")
	t.Setenv("MINIO_USE_SSL", "true")

	cfg := Load()

	if cfg.App.Port != "9090" {
		t.Errorf("port: got %q", cfg.App.Port)
	}
	if cfg.SMTP.Port != 465 {
		t.Errorf("smtp port: got %d", cfg.SMTP.Port)
	}
	if cfg.Certificate.BatchConcurrency != 10 {
		t.Errorf("batch concurrency: got %d", cfg.Certificate.BatchConcurrency)
	}
	if !cfg.MinIO.UseSSL {
		t.Error("expected MinIO SSL enabled")
	}
}

func TestGetEnvInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	if got := getEnvInt("SOME_INT", 7); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
	t.Setenv("SOME_INT", "-3")
	if got := getEnvInt("SOME_INT", 7); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
}
