// Package api provides a read-only HTTP resolution endpoint.
package api

import (
	"context"
	"errors"

	"github.com/gofiber/contrib/fiberzap"
	"github.com/gofiber/fiber/v2"
	"github.com/srvdns/srvdns-go/resolver"
	"github.com/srvdns/srvdns-go/srv"
	"go.uber.org/zap"
)

// Resolver is the resolution surface the API exposes.
type Resolver interface {
	Resolve(ctx context.Context, name string) (resolver.Result, error)
}

// Config stores the configuration for the RESTful API.
type Config struct {
	// Enabled controls whether the API server is enabled.
	Enabled bool `json:"enabled"`

	// Listen is the address to listen on.
	Listen string `json:"listen"`
}

// Server returns a new API server from the config.
func (c *Config) Server(r Resolver, logger *zap.Logger) (*Server, error) {
	if c.Listen == "" {
		return nil, errors.New("no listen address specified")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger,
	}))

	v1 := app.Group("/v1")
	h := handler{resolver: r}
	v1.Get("/resolve/:name", h.Resolve)

	return &Server{
		listen: c.Listen,
		app:    app,
		logger: logger,
	}, nil
}

// Server is the RESTful API server.
type Server struct {
	listen string
	app    *fiber.App
	logger *zap.Logger
}

// ZapField implements [srvdns.Service.ZapField].
func (s *Server) ZapField() zap.Field {
	return zap.String("service", "api "+s.listen)
}

// Start implements [srvdns.Service.Start].
func (s *Server) Start(ctx context.Context) error {
	go func() {
		if err := s.app.Listen(s.listen); err != nil {
			s.logger.Error("Failed to serve API",
				zap.String("listen", s.listen),
				zap.Error(err),
			)
		}
	}()
	return nil
}

// Stop implements [srvdns.Service.Stop].
func (s *Server) Stop() error {
	return s.app.Shutdown()
}

type handler struct {
	resolver Resolver
}

// resolveResponse is the response body of the resolve endpoint.
type resolveResponse struct {
	Name          string       `json:"name"`
	CanonicalName string       `json:"canonicalName"`
	RCode         uint16       `json:"rcode"`
	Records       []srv.Record `json:"records"`
	Dropped       int          `json:"dropped,omitempty"`
}

// Resolve handles GET /v1/resolve/:name.
func (h handler) Resolve(c *fiber.Ctx) error {
	name := c.Params("name")

	result, err := h.resolver.Resolve(c.UserContext(), name)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	records := result.Records
	if records == nil {
		records = []srv.Record{}
	}
	return c.JSON(resolveResponse{
		Name:          name,
		CanonicalName: result.CanonicalName,
		RCode:         uint16(result.RCode),
		Records:       records,
		Dropped:       result.Dropped,
	})
}
