package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lanepark/chesshall/internal/domain"
	"github.com/lanepark/chesshall/internal/obslog"
	"github.com/lanepark/chesshall/internal/oracle"
)

// FinishHook runs after a session reaches a terminal status. Hooks are
// fire-and-forget: they run on their own goroutine and never affect the
// command that triggered them.
type FinishHook func(rec *domain.Session)

// Manager owns the session state machine: seat assignment, turn
// authority, move application through the rules oracle, and terminal
// transitions. Every mutation is an atomic read-modify-write through
// the Store, so concurrent commands on one join code serialize.
type Manager struct {
	store   Store
	oracle  oracle.Oracle
	codeLen int
	hooks   []FinishHook
}

type Option func(*Manager)

func WithJoinCodeLength(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.codeLen = n
		}
	}
}

func NewManager(store Store, orc oracle.Oracle, opts ...Option) *Manager {
	m := &Manager{store: store, oracle: orc, codeLen: 5}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// OnFinish registers a hook invoked on every terminal transition.
func (m *Manager) OnFinish(h FinishHook) {
	if h != nil {
		m.hooks = append(m.hooks, h)
	}
}

// Create starts a new session with the chosen seat bound to the
// creator and a freshly generated unique join code.
func (m *Manager) Create(ctx context.Context, userID, userName string, seatChoice string) (*domain.Session, domain.Seat, error) {
	seat, ok := domain.ParseSeat(seatChoice)
	if !ok {
		return nil, domain.SeatNone, ErrInvalidSeatChoice
	}

	now := time.Now().UTC()
	rec := &domain.Session{
		Status:    domain.StatusWaiting,
		WhiteName: domain.WaitingName,
		BlackName: domain.WaitingName,
		FEN:       oracle.InitialFEN,
		Moves:     []domain.Move{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	rec.BindSeat(seat, userID, userName)

	// Uniqueness is enforced at generation time: retry until the store
	// reports no collision.
	const attempts = 5
	var lastErr error
	for i := 0; i < attempts; i++ {
		code, err := generateJoinCode(m.codeLen)
		if err != nil {
			return nil, domain.SeatNone, err
		}
		rec.JoinCode = code
		if err := m.store.Create(ctx, rec); err != nil {
			if errors.Is(err, ErrCodeTaken) {
				lastErr = err
				continue
			}
			return nil, domain.SeatNone, err
		}
		obslog.L().Info("session_create",
			zap.String("join_code", rec.JoinCode),
			zap.String("creator_id", userID),
			zap.String("seat", string(seat)),
		)
		return rec, seat, nil
	}
	return nil, domain.SeatNone, fmt.Errorf("failed to allocate join code: %w", lastErr)
}

// Join fills the first empty seat. Re-join by an already-seated
// identity is a no-op, not an error, so page reloads never double-book
// a seat; changed reports whether a broadcast-worthy mutation happened.
func (m *Manager) Join(ctx context.Context, joinCode, userID, userName string) (rec *domain.Session, seat domain.Seat, changed bool, err error) {
	code := toLowerTrim(joinCode)
	rec, err = m.store.Update(ctx, code, func(cur *domain.Session) error {
		if s := cur.SeatOf(userID); s != domain.SeatNone {
			return errNoChange
		}
		switch {
		case cur.WhiteID == "":
			cur.BindSeat(domain.SeatWhite, userID, userName)
		case cur.BlackID == "":
			cur.BindSeat(domain.SeatBlack, userID, userName)
		default:
			return ErrSessionFull
		}
		if cur.BothSeated() && cur.Status == domain.StatusWaiting {
			cur.Status = domain.StatusActive
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		rec, err = m.store.Get(ctx, code)
		if err != nil {
			return nil, domain.SeatNone, false, err
		}
		return rec, rec.SeatOf(userID), false, nil
	}
	if err != nil {
		return nil, domain.SeatNone, false, err
	}
	obslog.L().Info("session_join",
		zap.String("join_code", rec.JoinCode),
		zap.String("user_id", userID),
		zap.String("seat", string(rec.SeatOf(userID))),
		zap.String("status", string(rec.Status)),
	)
	return rec, rec.SeatOf(userID), true, nil
}

// Get loads the current record.
func (m *Manager) Get(ctx context.Context, joinCode string) (*domain.Session, error) {
	return m.store.Get(ctx, toLowerTrim(joinCode))
}

// Move validates caller authorization, turn ownership, and rules-oracle
// legality, then applies the move. A legal move from Waiting starts the
// game; a game-over verdict sets the terminal status and result.
func (m *Manager) Move(ctx context.Context, joinCode, userID, from, to, promotion string) (*domain.Session, error) {
	code := toLowerTrim(joinCode)
	rec, err := m.store.Update(ctx, code, func(cur *domain.Session) error {
		seat := cur.SeatOf(userID)
		if seat == domain.SeatNone {
			return ErrNotAPlayer
		}
		if cur.Status != domain.StatusActive && cur.Status != domain.StatusWaiting {
			return ErrGameNotActive
		}
		turn, err := oracle.SideToMove(cur.FEN)
		if err != nil {
			return err
		}
		if turn != seat {
			return ErrNotYourTurn
		}

		out, err := m.oracle.Apply(cur.Moves, from, to, promotion)
		if err != nil {
			if errors.Is(err, oracle.ErrIllegalMove) {
				return ErrIllegalMove
			}
			return err
		}

		cur.FEN = out.FEN
		cur.Moves = append(cur.Moves, out.Move)
		cur.PGN = domain.Movetext(cur.Moves)
		cur.DrawOfferedBy = domain.SeatNone
		cur.Status = domain.StatusActive

		if out.GameOver {
			cur.TerminationMethod = out.Method
			if out.Decisive {
				// The side not to move in the new position delivered mate.
				loser, err := oracle.SideToMove(out.FEN)
				if err != nil {
					return err
				}
				cur.Status = domain.StatusCheckmate
				cur.Result = domain.WinFor(loser.Opponent())
			} else {
				cur.Status = domain.StatusDraw
				cur.Result = domain.ResultDraw
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	last := rec.Moves[len(rec.Moves)-1]
	obslog.L().Info("session_move",
		zap.String("join_code", rec.JoinCode),
		zap.String("user_id", userID),
		zap.String("san", last.SAN),
		zap.String("status", string(rec.Status)),
		zap.String("result", string(rec.Result)),
	)
	m.fireFinishHooks(rec)
	return rec, nil
}

// Resign ends the game in favor of the opposing seat. Reachable from
// Waiting as well, so a seated creator can abandon an unfilled session.
func (m *Manager) Resign(ctx context.Context, joinCode, userID string) (*domain.Session, error) {
	rec, err := m.store.Update(ctx, toLowerTrim(joinCode), func(cur *domain.Session) error {
		seat := cur.SeatOf(userID)
		if seat == domain.SeatNone {
			return ErrNotAPlayer
		}
		if cur.Status.Terminal() {
			return ErrGameFinished
		}
		cur.Status = domain.StatusResigned
		cur.Result = domain.WinFor(seat.Opponent())
		cur.DrawOfferedBy = domain.SeatNone
		cur.TerminationMethod = "resignation"
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("session_resign",
		zap.String("join_code", rec.JoinCode),
		zap.String("resigner", userID),
		zap.String("result", string(rec.Result)),
	)
	m.fireFinishHooks(rec)
	return rec, nil
}

// OfferDraw marks a pending draw offer by the caller's seat. Any
// successful move clears it.
func (m *Manager) OfferDraw(ctx context.Context, joinCode, userID string) (*domain.Session, error) {
	rec, err := m.store.Update(ctx, toLowerTrim(joinCode), func(cur *domain.Session) error {
		seat := cur.SeatOf(userID)
		if seat == domain.SeatNone {
			return ErrNotAPlayer
		}
		if cur.Status.Terminal() {
			return ErrGameFinished
		}
		if cur.Status != domain.StatusActive {
			return ErrGameNotActive
		}
		cur.DrawOfferedBy = seat
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("session_draw_offer",
		zap.String("join_code", rec.JoinCode),
		zap.String("user_id", userID),
		zap.String("seat", string(rec.DrawOfferedBy)),
	)
	return rec, nil
}

// AnswerDraw accepts or declines the opponent's pending offer. Accept
// is a terminal transition to Draw by agreement.
func (m *Manager) AnswerDraw(ctx context.Context, joinCode, userID string, accept bool) (*domain.Session, error) {
	rec, err := m.store.Update(ctx, toLowerTrim(joinCode), func(cur *domain.Session) error {
		seat := cur.SeatOf(userID)
		if seat == domain.SeatNone {
			return ErrNotAPlayer
		}
		if cur.Status.Terminal() {
			return ErrGameFinished
		}
		if cur.DrawOfferedBy == domain.SeatNone {
			return ErrNoDrawOffer
		}
		if cur.DrawOfferedBy == seat {
			return ErrOwnDrawOffer
		}
		cur.DrawOfferedBy = domain.SeatNone
		if accept {
			cur.Status = domain.StatusDraw
			cur.Result = domain.ResultDraw
			cur.TerminationMethod = "agreement"
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	obslog.L().Info("session_draw_answer",
		zap.String("join_code", rec.JoinCode),
		zap.String("user_id", userID),
		zap.Bool("accepted", accept),
		zap.String("status", string(rec.Status)),
	)
	m.fireFinishHooks(rec)
	return rec, nil
}

func (m *Manager) fireFinishHooks(rec *domain.Session) {
	if rec == nil || !rec.Status.Terminal() {
		return
	}
	for _, h := range m.hooks {
		go h(rec.Clone())
	}
}
