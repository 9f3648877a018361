package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/librarium/apiserver/config"
	"github.com/librarium/apiserver/internal/db"
	"github.com/librarium/apiserver/internal/handlers"
	"github.com/librarium/apiserver/internal/logging"
	"github.com/librarium/apiserver/internal/mq"
	"github.com/librarium/apiserver/internal/ratelimit"
	"github.com/librarium/apiserver/internal/services"
	"github.com/librarium/apiserver/internal/storage"
	"github.com/librarium/apiserver/internal/store"
	"github.com/librarium/apiserver/internal/store/memory"
)

const requestTimeout = 60 * time.Second

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	closers    []func() error
}

type repositories struct {
	users      services.UserRepository
	categories services.CategoryRepository
	books      services.BookRepository
	records    services.BorrowRecordRepository
	tx         services.TxRunner
}

// New wires storage, messaging and services from cfg and builds the router.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	s := &Server{}

	repos, err := s.openRepositories(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = s.close()
		return nil, err
	}

	var events services.EventPublisher
	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = s.close()
		return nil, err
	}
	if queue != nil {
		s.closers = append(s.closers, queue.Close)
		events = queue
	}

	var limiter handlers.LoginLimiter
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		fixedWindow, err := ratelimit.NewFixedWindowLimiter(
			cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.Prefix, cfg.Redis.LoginLimit, cfg.Redis.LoginWindow)
		if err != nil {
			_ = s.close()
			return nil, err
		}
		s.closers = append(s.closers, fixedWindow.Close)
		limiter = fixedWindow
	}

	userService := services.NewUserService(repos.users, objects)
	categoryService := services.NewCategoryService(repos.categories)
	bookService := services.NewBookService(repos.books, categoryService, objects, repos.tx)
	loanService := services.NewLoanService(repos.records, repos.tx, events, cfg.Borrow.MaxActiveLoans)
	dashboard := services.NewDashboardService(repos.users, repos.books, repos.categories, repos.records)

	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		admin, err := userService.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
		if err != nil {
			_ = s.close()
			return nil, fmt.Errorf("seed admin: %w", err)
		}
		slog.InfoContext(ctx, "admin account ready", "user_id", admin.ID, "email", admin.Email)
	}

	gate := handlers.NewGate(cfg.Auth.JWTSecret, services.NewAuthorizer(repos.users))
	authHandler := handlers.NewAuthHandler(userService, limiter, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	adminHandler := handlers.NewAdminHandler(userService, categoryService, dashboard)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		logging.RequestLogger,
		middleware.Recoverer,
		middleware.Timeout(requestTimeout),
	)
	router.Get("/health", handlers.Healthz)
	router.Route("/uploads", func(r chi.Router) {
		handlers.UploadsRouter(r, objects)
	})
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler, gate)
		})
		r.Route("/books", func(r chi.Router) {
			handlers.BookRouter(r, bookService, gate)
		})
		r.Route("/borrower", func(r chi.Router) {
			handlers.BorrowerRouter(r, loanService, gate)
		})
		r.Route("/librarian", func(r chi.Router) {
			handlers.LibrarianRouter(r, dashboard, bookService, gate)
		})
		r.Route("/admin", func(r chi.Router) {
			handlers.AdminRouter(r, adminHandler, gate)
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: requestTimeout,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) openRepositories(ctx context.Context, cfg config.DatabaseConfig) (repositories, error) {
	switch cfg.Driver {
	case "memory":
		mem := memory.NewStore()
		return repositories{
			users:      mem.Users(),
			categories: mem.Categories(),
			books:      mem.Books(),
			records:    mem.BorrowRecords(),
			tx:         mem,
		}, nil
	case "postgres", "":
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		s.closers = append(s.closers, dbConn.Close)
		return repositories{
			users:      store.NewUserRepository(dbConn),
			categories: store.NewCategoryRepository(dbConn),
			books:      store.NewBookRepository(dbConn),
			records:    store.NewBorrowRecordRepository(dbConn),
			tx:         store.NewTxManager(dbConn),
		}, nil
	default:
		return repositories{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	slog.Info("server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	return errors.Join(err, s.close())
}

func (s *Server) close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}
	s.closers = nil
	return errors.Join(errs...)
}
