package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/ahmadqo/e-sertifikat/docs" // Import generated docs
	appMiddleware "github.com/ahmadqo/e-sertifikat/internal/middleware"
	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/response"
)

type Router struct {
	authHandler        *AuthHandler
	eventHandler       *EventHandler
	attendanceHandler  *AttendanceHandler
	certificateHandler *CertificateHandler
	jwtSecret          string
	allowedOrigins     []string
}

func NewRouter(
	authHandler *AuthHandler,
	eventHandler *EventHandler,
	attendanceHandler *AttendanceHandler,
	certificateHandler *CertificateHandler,
	jwtSecret string,
	allowedOrigins ...string,
) *Router {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}
	return &Router{
		authHandler:        authHandler,
		eventHandler:       eventHandler,
		attendanceHandler:  attendanceHandler,
		certificateHandler: certificateHandler,
		jwtSecret:          jwtSecret,
		allowedOrigins:     allowedOrigins,
	}
}

func (ro *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ro.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.Success(w, "Server berjalan dengan baik", map[string]string{"status": "ok"})
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	adminOnly := []func(http.Handler) http.Handler{
		appMiddleware.Authenticate(ro.jwtSecret),
		appMiddleware.RequireRole(string(model.RoleAdmin), string(model.RoleSuperAdmin)),
	}

	r.Route("/api/v1", func(r chi.Router) {

		// ── Auth ─────────────────────────────────────────
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", ro.authHandler.Login)
			r.Post("/refresh", ro.authHandler.RefreshToken)

			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.Authenticate(ro.jwtSecret))
				r.Get("/profile", ro.authHandler.Profile)
			})
		})

		// ── Public: verifikasi nomor sertifikat ──────────
		r.Get("/verify", ro.certificateHandler.Verify)

		// ── Events (admin) ───────────────────────────────
		r.Route("/events", func(r chi.Router) {
			r.Use(adminOnly...)
			r.Get("/", ro.eventHandler.GetAll)
			r.Post("/", ro.eventHandler.Create)
			r.Get("/{id}", ro.eventHandler.GetByID)
			r.Put("/{id}", ro.eventHandler.Update)
			r.Delete("/{id}", ro.eventHandler.Delete)
			r.Patch("/{id}/activate", ro.eventHandler.Activate)
			r.Patch("/{id}/close", ro.eventHandler.Close)
			r.Post("/{id}/generate-link", ro.eventHandler.GenerateLink)
		})

		// ── Attendance ───────────────────────────────────
		r.Route("/attendance", func(r chi.Router) {
			// public
			r.Get("/form/{id}", ro.attendanceHandler.GetForm)
			r.Post("/form/{id}/access", ro.attendanceHandler.CheckAccess)
			r.Post("/submit/{id}", ro.attendanceHandler.Submit)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly...)
				r.Get("/event/{event_id}", ro.attendanceHandler.GetByEvent)
				r.Get("/{id}", ro.attendanceHandler.GetByID)
				r.Put("/{id}", ro.attendanceHandler.Update)
				r.Delete("/{id}", ro.attendanceHandler.Delete)
			})
		})

		// ── Certificates (admin) ─────────────────────────
		r.Route("/certificates", func(r chi.Router) {
			r.Use(adminOnly...)
			r.Post("/generate/{attendance_id}", ro.certificateHandler.Generate)
			r.Post("/generate-event/{event_id}", ro.certificateHandler.GenerateEvent)
			r.Post("/send/{attendance_id}", ro.certificateHandler.Send)
			r.Post("/send-event/{event_id}", ro.certificateHandler.SendEvent)
			r.Get("/history/{event_id}", ro.certificateHandler.History)
			r.Get("/attempts/{attendance_id}", ro.certificateHandler.Attempts)
			r.Get("/download/{attendance_id}", ro.certificateHandler.Download)
		})
	})

	return r
}
