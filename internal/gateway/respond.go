package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/lanepark/chesshall/internal/auth"
	"github.com/lanepark/chesshall/internal/obslog"
	"github.com/lanepark/chesshall/internal/session"
	"github.com/lanepark/chesshall/pkg/gamedto"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		obslog.L().Warn("response encode failed", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, de gamedto.DomainError) {
	s.writeJSON(w, status, gamedto.ErrorResponse{Error: de})
}

// writeDomainError maps a command error to its wire kind, message and
// HTTP status. Unknown errors become an opaque 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	kind, msgKey, status := classify(err)
	if kind == gamedto.KindUnexpected {
		obslog.L().Error("command failed", zap.Error(err))
	}
	s.writeError(w, status, gamedto.DomainError{
		Kind:      kind,
		Message:   s.messages.MustRender(msgKey, nil),
		Retryable: kind == gamedto.KindConflict,
	})
}

func classify(err error) (gamedto.ErrorKind, string, int) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return gamedto.KindNotFound, "errors.not_found", http.StatusNotFound
	case errors.Is(err, session.ErrInvalidSeatChoice):
		return gamedto.KindValidation, "errors.invalid_color", http.StatusBadRequest
	case errors.Is(err, session.ErrSessionFull):
		return gamedto.KindSessionFull, "errors.session_full", http.StatusConflict
	case errors.Is(err, session.ErrNotAPlayer):
		return gamedto.KindNotAPlayer, "errors.not_a_player", http.StatusBadRequest
	case errors.Is(err, session.ErrNotYourTurn):
		return gamedto.KindNotYourTurn, "errors.not_your_turn", http.StatusConflict
	case errors.Is(err, session.ErrIllegalMove):
		return gamedto.KindIllegalMove, "errors.illegal_move", http.StatusBadRequest
	case errors.Is(err, session.ErrGameNotActive):
		return gamedto.KindGameNotActive, "errors.game_not_active", http.StatusConflict
	case errors.Is(err, session.ErrGameFinished):
		return gamedto.KindGameFinished, "errors.game_finished", http.StatusConflict
	case errors.Is(err, session.ErrConflict):
		return gamedto.KindConflict, "errors.conflict", http.StatusConflict
	case errors.Is(err, session.ErrNoDrawOffer):
		return gamedto.KindValidation, "errors.no_draw_offer", http.StatusConflict
	case errors.Is(err, session.ErrOwnDrawOffer):
		return gamedto.KindValidation, "errors.draw_own_offer", http.StatusConflict
	case errors.Is(err, auth.ErrUsernameTaken):
		return gamedto.KindValidation, "errors.username_taken", http.StatusConflict
	case errors.Is(err, auth.ErrBadCredentials):
		return gamedto.KindUnauthenticated, "errors.bad_credentials", http.StatusUnauthorized
	default:
		return gamedto.KindUnexpected, "errors.unexpected", http.StatusInternalServerError
	}
}

func (s *Server) validationError(w http.ResponseWriter, msgKey string) {
	s.writeError(w, http.StatusBadRequest, gamedto.DomainError{
		Kind:    gamedto.KindValidation,
		Message: s.messages.MustRender(msgKey, nil),
	})
}
