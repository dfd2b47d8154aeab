// Package server exposes the assistant over HTTP: a JSON API for chat and
// media jobs, plus static serving of the generated media files.
package server

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/AdelinaPatlatii/SmartLibrarian/internal/librarian"
)

// Service is the slice of the assistant the HTTP layer needs.
type Service interface {
	Chat(ctx context.Context, query string) (librarian.Reply, error)
	DispatchSpeech(text, title string)
	DispatchImage(title, summary string)
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
	SummaryByTitle(title string) (string, bool)
}

var _ Service = (*librarian.Assistant)(nil)

// Config carries the HTTP front end settings.
type Config struct {
	Address     string
	CORSOrigins []string
	MediaDir    string
}

type Server struct {
	echo    *echo.Echo
	service Service
	logger  *zap.Logger
}

func New(service Service, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
		}))
	}

	s := &Server{echo: e, service: service, logger: logger}

	e.GET("/healthz", s.health)
	api := e.Group("/api")
	api.POST("/chat", s.chat)
	api.POST("/tts", s.tts)
	api.POST("/image", s.image)
	api.POST("/stt", s.stt)
	if cfg.MediaDir != "" {
		e.Static("/", cfg.MediaDir)
	}
	return s
}

// Start blocks serving on the address until Shutdown or a listener error.
func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// ServeHTTP makes the server usable as a plain http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}
