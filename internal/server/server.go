package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jobportal/apiserver/config"
	"github.com/jobportal/apiserver/internal/db"
	"github.com/jobportal/apiserver/internal/handlers"
	"github.com/jobportal/apiserver/internal/logger"
	"github.com/jobportal/apiserver/internal/mq"
	"github.com/jobportal/apiserver/internal/roles"
	"github.com/jobportal/apiserver/internal/services"
	"github.com/jobportal/apiserver/internal/storage"
	"github.com/jobportal/apiserver/internal/store"
	"github.com/rs/cors"
)

// Services groups the services exposed over HTTP.
type Services struct {
	Users        *services.UserService
	Jobs         *services.JobService
	Categories   *services.CategoryService
	Applications *services.ApplicationService
	Settings     *services.SettingService
	Stats        *services.StatsService
	Newsletter   *services.NewsletterService
}

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	mq         *mq.MQ
}

// New constructs a Server backed by PostgreSQL and the configured object
// storage and message queue.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if version, err := db.SchemaVersion(ctx, dbConn); err != nil {
		logger.Warningf("%v; run the migrate command", err)
	} else {
		logger.Infof("database schema at version %d", version)
	}

	objectStorage, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("init mq: %w", err)
	}

	userRepo := store.NewUserRepository(dbConn)
	jobRepo := store.NewJobRepository(dbConn)
	settingRepo := store.NewSettingRepository(dbConn)

	var archive services.ResumeArchive
	if objectStorage != nil {
		archive = objectStorage
		logger.Infof("archiving resumes to bucket %s", objectStorage.Bucket())
	}
	var events services.EventPublisher
	if queue != nil {
		events = queue
	}

	svc := Services{
		Users:        services.NewUserService(userRepo, settingRepo, cfg.OwnerEmail),
		Jobs:         services.NewJobService(jobRepo),
		Categories:   services.NewCategoryService(store.NewCategoryRepository(dbConn)),
		Applications: services.NewApplicationService(store.NewApplicationRepository(dbConn), jobRepo, archive, events),
		Settings:     services.NewSettingService(settingRepo),
		Stats:        services.NewStatsService(store.NewStatsRepository(dbConn)),
		Newsletter:   services.NewNewsletterService(store.NewNewsletterRepository(dbConn)),
	}
	router := NewRouter(svc, jwtSecret, cfg.CORSOrigins)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		mq:         queue,
	}, nil
}

// NewRouter builds the HTTP routes over the given services.
func NewRouter(svc Services, jwtSecret string, corsOrigins []string) *chi.Mux {
	auth := handlers.NewAuthenticator(svc.Users, jwtSecret)
	applications := handlers.NewApplicationHandler(svc.Applications)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
		corsHandler(corsOrigins),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, auth)
	})
	router.Route("/profile", func(r chi.Router) {
		handlers.ProfileRouter(r, svc.Users, auth)
	})
	router.Route("/applications", func(r chi.Router) {
		handlers.ApplicationRouter(r, svc.Applications, auth)
	})
	router.With(auth.RequireAuth).Get("/my-applications", applications.ListMine)
	router.Post("/resumes/parse", applications.ParseResume)
	router.Route("/jobs", func(r chi.Router) {
		handlers.JobRouter(r, svc.Jobs, auth)
	})
	router.Route("/categories", func(r chi.Router) {
		handlers.CategoryRouter(r, svc.Categories)
	})
	router.Route("/companies", func(r chi.Router) {
		handlers.CompanyRouter(r, svc.Users)
	})
	router.Post("/newsletter", handlers.NewNewsletterHandler(svc.Newsletter).Subscribe)

	router.Route("/admin", func(r chi.Router) {
		r.Use(auth.RequireAuth, auth.RequireRole(roles.Admin))

		r.Get("/stats", handlers.NewStatsHandler(svc.Stats).Dashboard)
		r.Route("/jobs", func(r chi.Router) {
			handlers.AdminJobRouter(r, svc.Jobs)
		})
		r.Route("/applications", func(r chi.Router) {
			handlers.AdminApplicationRouter(r, svc.Applications)
		})
		r.Route("/categories", func(r chi.Router) {
			handlers.AdminCategoryRouter(r, svc.Categories)
		})
		r.Route("/users", func(r chi.Router) {
			handlers.AdminUserRouter(r, svc.Users, auth)
		})
		r.Route("/companies", func(r chi.Router) {
			handlers.AdminCompanyRouter(r, svc.Users)
		})
		r.Route("/settings", func(r chi.Router) {
			r.Use(auth.RequireRole(roles.SuperAdmin))
			handlers.SettingRouter(r, svc.Settings)
		})
	})

	return router
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	logger.Infof("listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the database and queue.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		if cerr := s.mq.Close(); cerr != nil {
			logger.Warningf("close mq: %v", cerr)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
