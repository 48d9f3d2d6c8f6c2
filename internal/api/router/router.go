// Package router wires every HTTP handler into one chi router.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinovahq/clinic-platform/internal/appointments"
	"github.com/clinovahq/clinic-platform/internal/assistant"
	"github.com/clinovahq/clinic-platform/internal/auth"
	"github.com/clinovahq/clinic-platform/internal/doctors"
	httpmiddleware "github.com/clinovahq/clinic-platform/internal/http/middleware"
	"github.com/clinovahq/clinic-platform/internal/patients"
	"github.com/clinovahq/clinic-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AuthHandler         *auth.Handler
	AppointmentsHandler *appointments.Handler
	PatientsHandler     *patients.Handler
	DoctorsHandler      *doctors.Handler
	AssistantHandler    *assistant.Handler
	MetricsHandler      http.Handler
	JWTSecret           string
	CORSAllowedOrigins  []string
}

// New creates a chi router with all routes configured. Everything except
// health, metrics and login requires a bearer token.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.AuthHandler != nil {
			public.Post("/auth/login", cfg.AuthHandler.Login)
		}
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.RequireJWT(cfg.JWTSecret))

		if cfg.AuthHandler != nil {
			private.With(httpmiddleware.RequireRole(auth.RoleAdmin)).
				Post("/auth/register", cfg.AuthHandler.Register)
		}

		if cfg.AppointmentsHandler != nil {
			private.Route("/appointments", func(r chi.Router) {
				h := cfg.AppointmentsHandler
				r.Post("/", h.Create)
				r.Get("/availability", h.CheckAvailability)
				r.Get("/available-slots/{doctorID}/{date}", h.AvailableSlots)
				// Query-param alias for the slot listing.
				r.Get("/slots", h.AvailableSlots)
				r.Get("/patient/{patientID}", h.ListByPatient)
				r.Get("/doctor/{doctorID}", h.ListByDoctor)
				r.Get("/{id}", h.Get)
				r.Put("/{id}", h.Update)
				r.Delete("/{id}", h.Delete)
				r.Patch("/{id}/mark-attended", h.MarkAttended)
			})
		}

		if cfg.PatientsHandler != nil {
			private.Route("/patients", func(r chi.Router) {
				h := cfg.PatientsHandler
				r.Post("/", h.Create)
				r.Get("/", h.List)
				r.Get("/{id}", h.Get)
				r.Put("/{id}", h.Update)
				r.Delete("/{id}", h.Delete)
			})
		}

		if cfg.DoctorsHandler != nil {
			private.Route("/doctors", func(r chi.Router) {
				h := cfg.DoctorsHandler
				r.Get("/", h.List)
				r.Get("/specialties", h.Specialties)
				r.Get("/{id}", h.Get)
				r.Get("/{id}/stats", h.Stats)
			})
		}

		if cfg.AssistantHandler != nil {
			private.Post("/assistant/chat", cfg.AssistantHandler.Chat)
		}
	})

	return r
}
