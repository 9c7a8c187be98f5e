// Package gateway exposes the session service over HTTP and hands
// websocket upgrades to the realtime hub.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/lanepark/chesshall/internal/auth"
	"github.com/lanepark/chesshall/internal/msgcat"
	"github.com/lanepark/chesshall/internal/obslog"
	"github.com/lanepark/chesshall/internal/realtime"
	"github.com/lanepark/chesshall/internal/session"
)

type Server struct {
	mgr      *session.Manager
	authSvc  *auth.Service
	hub      *realtime.Hub
	messages *msgcat.Catalog

	cookieName string
	tokenTTL   time.Duration

	httpSrv *http.Server
}

type Options struct {
	Manager     *session.Manager
	AuthService *auth.Service
	Hub         *realtime.Hub
	Messages    *msgcat.Catalog
	CookieName  string
	TokenTTL    time.Duration
}

func New(opts Options) *Server {
	s := &Server{
		mgr:        opts.Manager,
		authSvc:    opts.AuthService,
		hub:        opts.Hub,
		messages:   opts.Messages,
		cookieName: opts.CookieName,
		tokenTTL:   opts.TokenTTL,
	}
	if s.cookieName == "" {
		s.cookieName = "chesshall_token"
	}
	if s.tokenTTL <= 0 {
		s.tokenTTL = 7 * 24 * time.Hour
	}
	return s
}

// Handler builds the full route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/signup", s.handleSignup).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.handleLogout).Methods(http.MethodPost)
	r.Handle("/api/auth/me", s.requireAuth(http.HandlerFunc(s.handleMe))).Methods(http.MethodGet)

	r.Handle("/api/gameSetup", s.requireAuth(http.HandlerFunc(s.handleCreate))).Methods(http.MethodPost)
	r.Handle("/api/joinGame", s.requireAuth(http.HandlerFunc(s.handleJoin))).Methods(http.MethodPost)

	game := r.PathPrefix("/api/game/{joinCode}").Subrouter()
	game.Handle("", s.requireAuth(http.HandlerFunc(s.handleGetGame))).Methods(http.MethodGet)
	game.Handle("/move", s.requireAuth(http.HandlerFunc(s.handleMove))).Methods(http.MethodPost)
	game.Handle("/resign", s.requireAuth(http.HandlerFunc(s.handleResign))).Methods(http.MethodPost)
	game.Handle("/draw/offer", s.requireAuth(http.HandlerFunc(s.handleDrawOffer))).Methods(http.MethodPost)
	game.Handle("/draw/accept", s.requireAuth(http.HandlerFunc(s.handleDrawAccept))).Methods(http.MethodPost)
	game.Handle("/draw/decline", s.requireAuth(http.HandlerFunc(s.handleDrawDecline))).Methods(http.MethodPost)
	game.HandleFunc("/board.png", s.handleBoardImage).Methods(http.MethodGet)

	r.HandleFunc("/ws", s.hub.ServeWS)

	return r
}

// Run blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Run(addr string) error {
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	obslog.L().Info("http server listening", zap.String("addr", addr))
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
