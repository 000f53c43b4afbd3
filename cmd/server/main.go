package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/config"
	"github.com/ahmadqo/e-sertifikat/internal/database"
	"github.com/ahmadqo/e-sertifikat/internal/handler"
	"github.com/ahmadqo/e-sertifikat/internal/repository"
	"github.com/ahmadqo/e-sertifikat/internal/service"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
)

// @title           E-Sertifikat API
// @version         1.0
// @description     Absensi kegiatan, penerbitan dan pengiriman sertifikat elektronik.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── Database ─────────────────────────────────────
	db, err := database.Connect(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	log.Printf("Running migrations from: %s", migrationsPath)
	if err := database.RunMigrations(ctx, db, migrationsPath); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	seeder := database.NewSeeder(db)
	if err := seeder.SeedAdmin(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
		log.Printf("Warning: seed failed: %v", err)
	}

	// ── Storage (MinIO) ──────────────────────────────
	storage, err := utils.NewStorageService(ctx, &cfg.MinIO)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}
	log.Println("MinIO connected successfully")

	mailer := utils.NewMailer(cfg.SMTP)
	if cfg.SMTP.Host == "" {
		log.Println("Warning: SMTP_HOST kosong, pengiriman sertifikat akan gagal")
	}

	// ── Repositories ─────────────────────────────────
	adminRepo := repository.NewAdminRepository(db)
	eventRepo := repository.NewEventRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)

	// ── Services ─────────────────────────────────────
	authService := service.NewAuthService(adminRepo, cfg.JWT)
	eventService := service.NewEventService(eventRepo, attendanceRepo, storage, cfg.App.FrontendURL, time.Now)
	admissionService := service.NewAdmissionService(eventRepo, attendanceRepo, storage, time.Now)
	attendanceService := service.NewAttendanceService(attendanceRepo, eventRepo, storage)
	issuanceService := service.NewIssuanceService(
		eventRepo, attendanceRepo, certificateRepo,
		storage, utils.PDFRenderer{}, cfg.Certificate, cfg.App.URL, time.Now,
	)
	deliveryService := service.NewDeliveryService(
		eventRepo, attendanceRepo, certificateRepo,
		storage, mailer, cfg.Certificate, time.Now,
	)
	historyService := service.NewHistoryService(eventRepo, attendanceRepo, certificateRepo)

	// ── Handlers ─────────────────────────────────────
	authHandler := handler.NewAuthHandler(authService)
	eventHandler := handler.NewEventHandler(eventService, cfg.Upload.MaxTemplateSize)
	attendanceHandler := handler.NewAttendanceHandler(eventService, admissionService, attendanceService, cfg.Upload.MaxSignatureSize)
	certificateHandler := handler.NewCertificateHandler(issuanceService, deliveryService, historyService)

	// ── Router ───────────────────────────────────────
	router := handler.NewRouter(
		authHandler,
		eventHandler,
		attendanceHandler,
		certificateHandler,
		cfg.JWT.Secret,
		cfg.App.FrontendURL,
	)

	// ── HTTP Server ──────────────────────────────────
	// WriteTimeout longgar karena generate/kirim massal berjalan dalam satu request
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.App.Port),
		Handler:      router.Setup(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server berjalan di port %s (mode: %s)", cfg.App.Port, cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}
