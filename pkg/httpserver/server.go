package httpserver

import (
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/crastinus/hlfun-auth-srv/pkg/auth"
	"github.com/crastinus/hlfun-auth-srv/pkg/bans"
	"github.com/crastinus/hlfun-auth-srv/pkg/logging"
)

// Config holds the server's listen address and per-request limits
type Config struct {
	ListenAddr     string
	Port           int
	MaxHeaderBytes int
	MaxBodyBytes   int
}

// Server accepts TCP connections and hands each one to its own
// ConnectionProcessor goroutine.
type Server struct {
	config *Config
	engine *auth.Engine
	bans   bans.Store

	listener    net.Listener
	activeConns atomic.Int32
	startTime   time.Time
}

// NewServer creates a server; call ListenAndServe to start accepting
func NewServer(config *Config, engine *auth.Engine, banStore bans.Store) *Server {
	return &Server{
		config: config,
		engine: engine,
		bans:   banStore,
	}
}

// ListenAndServe binds the listen address and serves until Stop is
// called. It blocks for the lifetime of the listener.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.config.ListenAddr, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.startTime = time.Now()
	logging.App.Info("Server listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Accept fails permanently once the listener is closed.
			logging.App.Debug("Accept loop ending", "error", err)
			return nil
		}
		s.activeConns.Add(1)
		go func() {
			defer s.activeConns.Add(-1)
			proc := NewConnectionProcessor(conn, s.engine, s.bans, s.config.MaxHeaderBytes, s.config.MaxBodyBytes)
			proc.Run()
		}()
	}
}

// Stop closes the listener; in-flight connections finish on their own
func (s *Server) Stop() {
	if s.listener != nil {
		s.listener.Close()
	}
}

// Addr returns the bound listen address, or "" before ListenAndServe
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GetActiveConnections reports the number of live connections
func (s *Server) GetActiveConnections() int {
	return int(s.activeConns.Load())
}

// GetStartTime reports when the server began accepting
func (s *Server) GetStartTime() time.Time {
	return s.startTime
}
