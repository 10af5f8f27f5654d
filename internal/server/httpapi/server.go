// Package httpapi exposes the AgriTrust services over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/agritrust/internal/logging"
	"github.com/dmitrijs2005/agritrust/internal/server/chatbot"
	"github.com/dmitrijs2005/agritrust/internal/server/models"
	"github.com/dmitrijs2005/agritrust/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 30 * time.Second
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.User, *services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	GetProfile(ctx context.Context, id string) (*models.User, error)
	CreateFarmer(ctx context.Context, in services.FarmerInput) (*models.User, error)
	LinkOrCreate(ctx context.Context, email, fullName, farmLocation string) (*services.LinkResult, error)
}

type FileService interface {
	Upload(ctx context.Context, up services.Upload) (*services.FileView, error)
	List(ctx context.Context) ([]*services.FileView, error)
}

type Responder interface {
	Reply(ctx context.Context, msg chatbot.InboundMessage) []byte
}

type Options struct {
	Address       string
	SecretKey     string
	CORSOrigins   []string
	MaxUploadSize int64
}

type Server struct {
	address       string
	users         UserService
	files         FileService
	bot           Responder
	logger        logging.Logger
	jwtSecret     []byte
	maxUploadSize int64
	router        chi.Router
}

func NewServer(opts Options, l logging.Logger, us UserService, fs FileService, bot Responder) *Server {
	s := &Server{
		address:       opts.Address,
		users:         us,
		files:         fs,
		bot:           bot,
		logger:        l.With("module", "http_server"),
		jwtSecret:     []byte(opts.SecretKey),
		maxUploadSize: opts.MaxUploadSize,
	}
	s.router = s.routes(opts.CORSOrigins)
	return s
}

func (s *Server) routes(corsOrigins []string) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(PromMiddleware)
	if len(corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", s.index)
	r.Get("/health", s.health)
	r.Handle("/metrics", MetricsHandler())

	r.Post("/login", s.login)
	r.Post("/register", s.register)
	r.Post("/token/refresh", s.refreshToken)
	r.Post("/sync", s.sync)
	r.Post("/whatsapp-webhook", s.whatsappWebhook)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/files", s.uploadFile)
		r.Get("/files", s.listFiles)
		r.Get("/profile/{id}", s.profile)
		r.Post("/farmers", s.createFarmer)
	})

	return r
}

// Handler returns the routed handler without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
		BaseContext:  func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		srv.SetKeepAlivesEnabled(false)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}
