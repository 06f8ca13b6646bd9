// Package runtime assembles and runs the avatar control server: config,
// logging, the animation controller with its event loop, and the HTTP
// surface carrying the controller websocket.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/saker-ai/avatar-server/internal/anim"
	"github.com/saker-ai/avatar-server/internal/command"
	appconfig "github.com/saker-ai/avatar-server/internal/config"
	apphttp "github.com/saker-ai/avatar-server/internal/http"
	applogger "github.com/saker-ai/avatar-server/internal/logger"
	"github.com/saker-ai/avatar-server/internal/mapping"
	"github.com/saker-ai/avatar-server/internal/metrics"
	"github.com/saker-ai/avatar-server/internal/sched"
	"github.com/saker-ai/avatar-server/internal/ws"
)

// Server represents an assembled avatar control server.
type Server struct {
	cfg     appconfig.Config
	logger  *zap.Logger
	handler *ws.Handler
	server  *http.Server
	cancel  context.CancelFunc
}

// New loads configuration and wires the full server. The animation
// controller applies its startup pose (idle locomotion, neutral
// expression) before any connection is accepted.
func New(configPath string) (*Server, error) {
	cfg, err := appconfig.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load avatar config: %w", err)
	}

	logger, err := applogger.New(cfg.Log)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	logger.Info("avatar config loaded",
		zap.String("config_path", configPath),
		zap.String("root_dir", cfg.RootDir),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.Bool("server_enabled", cfg.ServerEnabled),
	)

	player := anim.NewCatalogPlayer(cfg.Animation.CatalogDurations(), logger)
	tables := anim.Tables{
		Locomotion: mapping.New("locomotion", cfg.Mappings.Locomotion),
		Expression: mapping.New("expression", cfg.Mappings.Expression),
		Gaze:       mapping.New("gaze", cfg.Mappings.Gaze),
	}
	logger.Info("mapping tables loaded",
		zap.Int("locomotion", tables.Locomotion.Len()),
		zap.Int("expression", tables.Expression.Len()),
		zap.Int("gaze", tables.Gaze.Len()),
	)

	queue := sched.New()
	controller := anim.NewController(player, tables, anim.Options{
		ResetClip: cfg.Animation.ResetClip,
		BlinkClip: cfg.Animation.BlinkClip,
		BlinkHold: cfg.Animation.BlinkHold(),
		OneShots:  cfg.Animation.OneShotClips,
	}, queue, logger)

	m := metrics.New()
	dispatcher := command.NewDispatcher(controller, logger, m)
	wsHandler := ws.NewHandler(logger, cfg, dispatcher, controller, queue, m)
	router := apphttp.NewRouter(cfg, wsHandler, m, logger)

	return &Server{
		cfg:     cfg,
		logger:  logger,
		handler: wsHandler,
		server: &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: router,
		},
	}, nil
}

// Run starts the event loop and listens until Shutdown. When the server
// is disabled by configuration, Run returns immediately.
func (s *Server) Run() error {
	if s == nil || s.server == nil {
		return nil
	}
	if !s.cfg.ServerEnabled {
		s.logger.Info("server disabled by configuration; not listening")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go s.handler.Run(ctx)

	err := s.listen()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	if s == nil || s.server == nil {
		return ""
	}
	return s.server.Addr
}

// Logger returns the server logger.
func (s *Server) Logger() *zap.Logger {
	if s == nil {
		return zap.NewNop()
	}
	return s.logger
}

// Shutdown stops the event loop and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}
	err := s.server.Shutdown(ctx)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) listen() error {
	if !s.cfg.TLSDisable && s.cfg.TLSCertPath != "" && s.cfg.TLSKeyPath != "" {
		s.logger.Info("starting https server", zap.String("addr", s.cfg.HTTPAddr))
		return s.server.ListenAndServeTLS(s.cfg.TLSCertPath, s.cfg.TLSKeyPath)
	}
	s.logger.Info("starting http server", zap.String("addr", s.cfg.HTTPAddr))
	return s.server.ListenAndServe()
}
