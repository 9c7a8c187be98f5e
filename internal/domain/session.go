package domain

import (
	"strings"
	"time"
)

// Seat identifies one of the two player roles in a session. Spectators
// hold no seat; SeatSpectator only ever appears in per-caller views.
type Seat string

const (
	SeatWhite     Seat = "white"
	SeatBlack     Seat = "black"
	SeatSpectator Seat = "spectator"
	SeatNone      Seat = ""
)

// ParseSeat accepts "white"/"black" in any case.
func ParseSeat(s string) (Seat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return SeatWhite, true
	case "black", "b":
		return SeatBlack, true
	}
	return SeatNone, false
}

func (s Seat) Opponent() Seat {
	switch s {
	case SeatWhite:
		return SeatBlack
	case SeatBlack:
		return SeatWhite
	}
	return SeatNone
}

// Status is the lifecycle state of a session.
type Status string

const (
	StatusWaiting   Status = "Waiting"
	StatusActive    Status = "Active"
	StatusCheckmate Status = "Checkmate"
	// StatusStalemate is part of the declared status set but the
	// transition logic classifies every non-checkmate game-over as
	// StatusDraw. It is kept so stored records carrying it stay valid.
	StatusStalemate Status = "Stalemate"
	StatusDraw      Status = "Draw"
	StatusResigned  Status = "Resigned"
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	switch s {
	case StatusCheckmate, StatusStalemate, StatusDraw, StatusResigned:
		return true
	}
	return false
}

// Result is the PGN-style outcome tag, set only on terminal transition.
type Result string

const (
	ResultWhiteWins Result = "1-0"
	ResultBlackWins Result = "0-1"
	ResultDraw      Result = "1/2-1/2"
)

// WinFor returns the result crediting the given seat with the win.
func WinFor(seat Seat) Result {
	if seat == SeatWhite {
		return ResultWhiteWins
	}
	return ResultBlackWins
}

// Move is one applied half-move. The log is append-only and its order
// is the replay order.
type Move struct {
	SAN  string `json:"san"`
	From string `json:"from"`
	To   string `json:"to"`
}

// WaitingName is the display-name placeholder for an unfilled seat.
const WaitingName = "Waiting for player"

// Session is the authoritative record of one game, keyed by join code.
type Session struct {
	JoinCode string `json:"join_code"`
	Status   Status `json:"status"`
	Result   Result `json:"result,omitempty"`

	WhiteID   string `json:"white_id,omitempty"`
	WhiteName string `json:"white_name"`
	BlackID   string `json:"black_id,omitempty"`
	BlackName string `json:"black_name"`

	FEN   string `json:"fen"`
	PGN   string `json:"pgn"`
	Moves []Move `json:"moves"`

	DrawOfferedBy Seat `json:"draw_offered_by,omitempty"`

	// TerminationMethod records how a terminal status was reached
	// (checkmate, stalemate, resignation, agreement, ...). Stored for
	// archiving, never part of the canonical view.
	TerminationMethod string `json:"termination_method,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Version increments on every successful write, so observers can
	// tell whether a record changed between reads.
	Version int64 `json:"version"`
}

// SeatOf resolves which seat, if any, the given identity occupies.
func (s *Session) SeatOf(userID string) Seat {
	if userID == "" {
		return SeatNone
	}
	if s.WhiteID == userID {
		return SeatWhite
	}
	if s.BlackID == userID {
		return SeatBlack
	}
	return SeatNone
}

// NameOf returns the cached display name bound to a seat.
func (s *Session) NameOf(seat Seat) string {
	if seat == SeatWhite {
		return s.WhiteName
	}
	return s.BlackName
}

// BindSeat fills a seat with an identity and display name.
func (s *Session) BindSeat(seat Seat, userID, name string) {
	switch seat {
	case SeatWhite:
		s.WhiteID, s.WhiteName = userID, name
	case SeatBlack:
		s.BlackID, s.BlackName = userID, name
	}
}

// BothSeated reports whether both seats are bound.
func (s *Session) BothSeated() bool {
	return s.WhiteID != "" && s.BlackID != ""
}

// Clone returns a deep copy. Stores hand out copies so callers never
// mutate shared state outside a read-modify-write.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Moves = make([]Move, len(s.Moves))
	copy(cp.Moves, s.Moves)
	return &cp
}
