// ABOUTME: MCP server setup for the lift workout tracker.
// ABOUTME: Wraps the MCP server with the catalog, session engine and analytics over one store.
package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/lift/internal/analytics"
	"github.com/harperreed/lift/internal/catalog"
	"github.com/harperreed/lift/internal/logging"
	"github.com/harperreed/lift/internal/models"
	"github.com/harperreed/lift/internal/session"
	"github.com/harperreed/lift/internal/storage"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// Version is reported to MCP clients.
const Version = "1.0.0"

// Server wraps the MCP server with lift services.
type Server struct {
	mcpServer *mcp.Server
	store     storage.Store
	catalog   *catalog.Service
	engine    *session.Engine
	agg       *analytics.Aggregator
	owner     string
	log       *logrus.Entry

	window time.Duration
	timer  session.RestTimer
	now    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithOwner sets the user whose data the tools act on.
func WithOwner(id string) Option {
	return func(s *Server) { s.owner = id }
}

// WithLogger sets the server logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Server) { s.log = log }
}

// WithWindow sets the analytics frequency window.
func WithWindow(d time.Duration) Option {
	return func(s *Server) { s.window = d }
}

// WithRestTimer sets the timer the session engine starts after each set.
func WithRestTimer(t session.RestTimer) Option {
	return func(s *Server) { s.timer = t }
}

// WithClock overrides the report clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a new MCP server over store and resumes any
// checkpointed session.
func NewServer(store storage.Store, opts ...Option) (*Server, error) {
	s := &Server{
		store: store,
		owner: models.GuestUserID,
		now:   models.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log).WithField("component", "mcp")

	engineOpts := []session.Option{session.WithLogger(s.log)}
	if s.timer != nil {
		engineOpts = append(engineOpts, session.WithTimer(s.timer))
	}
	aggOpts := []analytics.Option{analytics.WithLogger(s.log)}
	if s.window > 0 {
		aggOpts = append(aggOpts, analytics.WithWindow(s.window))
	}

	s.catalog = catalog.New(store, s.log)
	s.engine = session.NewEngine(store, engineOpts...)
	s.agg = analytics.NewAggregator(store, aggOpts...)

	if _, err := s.engine.Resume(context.Background()); err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}

	s.mcpServer = mcp.NewServer(
		&mcp.Implementation{
			Name:    "lift",
			Version: Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Serve starts the MCP server using stdio transport.
func (s *Server) Serve(ctx context.Context) error {
	s.log.WithField("owner", s.owner).Info("serving MCP over stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Close waits for background session work to finish.
func (s *Server) Close() {
	s.engine.Close()
}
