package gateway

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/lanepark/chesshall/internal/boardimg"
	"github.com/lanepark/chesshall/internal/domain"
	"github.com/lanepark/chesshall/internal/session"
	"github.com/lanepark/chesshall/pkg/gamedto"
)

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) setAuthCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokenTTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req gamedto.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.validationError(w, "errors.validation")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.NewPassword == "" {
		s.validationError(w, "errors.validation")
		return
	}

	token, user, err := s.authSvc.Register(r.Context(), req.Username, req.NewPassword)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.setAuthCookie(w, token)
	s.writeJSON(w, http.StatusCreated, gamedto.AuthResponse{OK: true, Token: token, Username: user.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req gamedto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.validationError(w, "errors.validation")
		return
	}

	token, user, err := s.authSvc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.setAuthCookie(w, token)
	s.writeJSON(w, http.StatusOK, gamedto.AuthResponse{OK: true, Token: token, Username: user.Username})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	s.clearAuthCookie(w)
	s.writeJSON(w, http.StatusOK, gamedto.AuthResponse{OK: true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		s.writeUnauthenticated(w)
		return
	}
	s.writeJSON(w, http.StatusOK, gamedto.AuthResponse{OK: true, Username: id.Name})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		s.writeUnauthenticated(w)
		return
	}

	var req gamedto.CreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.validationError(w, "errors.validation")
		return
	}

	rec, seat, err := s.mgr.Create(r.Context(), id.ID, id.Name, req.Color)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.hub.Publish(rec.JoinCode, session.ToView(rec))
	s.writeJSON(w, http.StatusCreated, gamedto.CreateResponse{OK: true, JoinCode: rec.JoinCode, Seat: string(seat)})
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		s.writeUnauthenticated(w)
		return
	}

	var req gamedto.JoinRequest
	if err := decodeJSON(r, &req); err != nil {
		s.validationError(w, "errors.validation")
		return
	}
	if strings.TrimSpace(req.GameCode) == "" {
		s.validationError(w, "errors.code_required")
		return
	}

	rec, seat, changed, err := s.mgr.Join(r.Context(), req.GameCode, id.ID, id.Name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if changed {
		s.hub.Publish(rec.JoinCode, session.ToView(rec))
	}
	s.writeCommand(w, http.StatusOK, rec, seat)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		s.writeUnauthenticated(w)
		return
	}

	rec, err := s.mgr.Get(r.Context(), mux.Vars(r)["joinCode"])
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	seat := rec.SeatOf(id.ID)
	if seat == domain.SeatNone {
		seat = domain.SeatSpectator
	}
	s.writeCommand(w, http.StatusOK, rec, seat)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		s.writeUnauthenticated(w)
		return
	}

	var req gamedto.MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.validationError(w, "errors.validation")
		return
	}
	if strings.TrimSpace(req.From) == "" || strings.TrimSpace(req.To) == "" {
		s.validationError(w, "errors.move_required")
		return
	}

	joinCode := mux.Vars(r)["joinCode"]
	rec, err := s.mgr.Move(r.Context(), joinCode, id.ID, req.From, req.To, req.Promotion)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.hub.Publish(rec.JoinCode, session.ToView(rec))
	s.writeCommand(w, http.StatusOK, rec, rec.SeatOf(id.ID))
}

func (s *Server) handleResign(w http.ResponseWriter, r *http.Request) {
	s.handleSessionCommand(w, r, func(joinCode, userID string) (*domain.Session, error) {
		return s.mgr.Resign(r.Context(), joinCode, userID)
	})
}

func (s *Server) handleDrawOffer(w http.ResponseWriter, r *http.Request) {
	s.handleSessionCommand(w, r, func(joinCode, userID string) (*domain.Session, error) {
		return s.mgr.OfferDraw(r.Context(), joinCode, userID)
	})
}

func (s *Server) handleDrawAccept(w http.ResponseWriter, r *http.Request) {
	s.handleSessionCommand(w, r, func(joinCode, userID string) (*domain.Session, error) {
		return s.mgr.AnswerDraw(r.Context(), joinCode, userID, true)
	})
}

func (s *Server) handleDrawDecline(w http.ResponseWriter, r *http.Request) {
	s.handleSessionCommand(w, r, func(joinCode, userID string) (*domain.Session, error) {
		return s.mgr.AnswerDraw(r.Context(), joinCode, userID, false)
	})
}

func (s *Server) handleSessionCommand(w http.ResponseWriter, r *http.Request, run func(joinCode, userID string) (*domain.Session, error)) {
	id, ok := identityFrom(r.Context())
	if !ok {
		s.writeUnauthenticated(w)
		return
	}

	rec, err := run(mux.Vars(r)["joinCode"], id.ID)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.hub.Publish(rec.JoinCode, session.ToView(rec))
	s.writeCommand(w, http.StatusOK, rec, rec.SeatOf(id.ID))
}

func (s *Server) handleBoardImage(w http.ResponseWriter, r *http.Request) {
	rec, err := s.mgr.Get(r.Context(), mux.Vars(r)["joinCode"])
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	png, err := boardimg.Render(rec.FEN)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (s *Server) writeCommand(w http.ResponseWriter, status int, rec *domain.Session, seat domain.Seat) {
	view := session.ToView(rec)
	s.writeJSON(w, status, gamedto.CommandResponse{OK: true, Seat: string(seat), SessionView: *view})
}
