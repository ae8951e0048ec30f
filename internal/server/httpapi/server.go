// Package httpapi is the public HTTP surface of the catalog. Handlers only
// translate requests into service calls and service errors into status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mygardenbook/gardenbook/internal/logging"
	"github.com/mygardenbook/gardenbook/internal/server/config"
	"github.com/mygardenbook/gardenbook/internal/server/metrics"
	"github.com/mygardenbook/gardenbook/internal/server/models"
	"github.com/mygardenbook/gardenbook/internal/server/services"
)

// SpecimenLifecycle mutates specimens and their assets.
type SpecimenLifecycle interface {
	Create(ctx context.Context, adminID string, kind models.Kind, fields models.SpecimenFields, image *models.ImageFile) (*services.CreateResult, error)
	Update(ctx context.Context, adminID string, kind models.Kind, id int64, patch models.SpecimenPatch, image *models.ImageFile) (*models.Specimen, error)
	Delete(ctx context.Context, adminID string, kind models.Kind, id int64) error
	RegenerateScanCode(ctx context.Context, adminID string, kind models.Kind, id int64) (*models.Specimen, error)
}

type CategoryGuard interface {
	Create(ctx context.Context, adminID, name string, typ *string) (*models.Category, error)
	Delete(ctx context.Context, adminID string, id int64) error
}

type CatalogReader interface {
	ListSpecimens(ctx context.Context, kind models.Kind) ([]*models.Specimen, error)
	GetSpecimen(ctx context.Context, kind models.Kind, id int64) (*models.Specimen, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
}

type AdminAccounts interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Me(ctx context.Context, adminID string) (*models.Admin, error)
}

// Gate resolves an Authorization header to an admin id.
type Gate interface {
	Resolve(ctx context.Context, header string) (string, error)
}

type Deps struct {
	Specimens  SpecimenLifecycle
	Categories CategoryGuard
	Catalog    CatalogReader
	Admins     AdminAccounts
	Gate       Gate
	Metrics    *metrics.Metrics
}

type Server struct {
	Router *chi.Mux

	address string
	deps    Deps
	cfg     *config.Config
	logger  logging.Logger
}

func NewServer(cfg *config.Config, l logging.Logger, deps Deps) *Server {
	s := &Server{
		Router:  chi.NewRouter(),
		address: cfg.EndpointAddrHTTP,
		deps:    deps,
		cfg:     cfg,
		logger:  l.With("module", "http_server"),
	}
	s.MountHandlers()
	return s
}

func (s *Server) MountHandlers() {
	s.Router.Use(s.requestLogger)
	s.Router.Use(s.panicHandler)
	s.Router.Use(s.deps.Metrics.InstrumentHandler)
	s.Router.Use(s.handleCORS())

	s.Router.Get("/", s.health)
	s.Router.Method(http.MethodGet, "/metrics", s.deps.Metrics.Handler())

	s.Router.Route("/api", func(r chi.Router) {
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.login)
			r.With(s.requireAdmin).Get("/me", s.me)
		})
		for _, kind := range models.Kinds {
			r.Route("/"+kind.Table(), func(r chi.Router) {
				s.mountSpecimenHandlers(r, kind)
			})
		}
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", s.listCategories)
			r.With(s.requireAdmin).Post("/", s.createCategory)
			r.With(s.requireAdmin).Delete("/{id}", s.deleteCategory)
		})
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("MyGardenBook backend is running"))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
