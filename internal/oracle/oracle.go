package oracle

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/lanepark/chesshall/internal/domain"
)

// InitialFEN is the canonical starting position every session replays from.
const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrIllegalMove is returned when the proposed move is rejected against
// the current position.
var ErrIllegalMove = errors.New("illegal move")

// Outcome is the oracle's verdict on one accepted move.
type Outcome struct {
	Move     domain.Move
	FEN      string
	GameOver bool
	// Decisive is true for checkmate; every other game-over
	// classification is a draw.
	Decisive bool
	// Method names the fine-grained game-over reason (checkmate,
	// stalemate, insufficient_material, ...). Empty while the game runs.
	Method string
}

// Oracle is the capability the session manager depends on for move
// legality and game-over detection. Any compliant rules engine
// satisfies it; tests substitute a stub.
type Oracle interface {
	// Apply replays the move log from the initial position, then
	// validates and applies the proposed origin/destination/promotion
	// move. Returns ErrIllegalMove on rejection.
	Apply(moves []domain.Move, from, to, promotion string) (*Outcome, error)
	// Replay reproduces the position reached by the move log.
	Replay(moves []domain.Move) (fen string, err error)
}

// SideToMove derives which seat moves next from a FEN position.
func SideToMove(fen string) (domain.Seat, error) {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return domain.SeatNone, fmt.Errorf("malformed position %q", fen)
	}
	switch fields[1] {
	case "w":
		return domain.SeatWhite, nil
	case "b":
		return domain.SeatBlack, nil
	}
	return domain.SeatNone, fmt.Errorf("malformed side-to-move in %q", fen)
}

type chessOracle struct{}

// New returns the corentings/chess backed oracle.
func New() Oracle { return chessOracle{} }

func (chessOracle) Apply(moves []domain.Move, from, to, promotion string) (*Outcome, error) {
	game, err := reconstruct(moves)
	if err != nil {
		return nil, err
	}
	pos := game.Position()

	uci := strings.ToLower(strings.TrimSpace(from) + strings.TrimSpace(to) + strings.TrimSpace(promotion))
	if len(uci) < 4 {
		return nil, ErrIllegalMove
	}
	mv, derr := nchess.UCINotation{}.Decode(pos, uci)
	if derr != nil {
		return nil, ErrIllegalMove
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	if err := game.Move(mv, nil); err != nil {
		return nil, ErrIllegalMove
	}

	out := &Outcome{
		Move: domain.Move{SAN: san, From: mv.S1().String(), To: mv.S2().String()},
		FEN:  game.FEN(),
	}
	switch game.Outcome() {
	case nchess.WhiteWon, nchess.BlackWon:
		out.GameOver = true
		out.Decisive = true
		out.Method = methodName(game.Method())
	case nchess.Draw:
		out.GameOver = true
		out.Method = methodName(game.Method())
	}
	return out, nil
}

func (chessOracle) Replay(moves []domain.Move) (string, error) {
	game, err := reconstruct(moves)
	if err != nil {
		return "", err
	}
	return game.FEN(), nil
}

// reconstruct always replays from the start position by pushing the
// stored SAN labels. The record's FEN is kept for presentation;
// applying it here could double-apply moves.
func reconstruct(moves []domain.Move) (*nchess.Game, error) {
	game := nchess.NewGame()
	for i, mv := range moves {
		if err := game.PushNotationMove(mv.SAN, nchess.AlgebraicNotation{}, nil); err != nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i+1, mv.SAN, err)
		}
	}
	return game, nil
}

func methodName(m nchess.Method) string {
	switch m {
	case nchess.Checkmate:
		return "checkmate"
	case nchess.Stalemate:
		return "stalemate"
	case nchess.ThreefoldRepetition:
		return "threefold_repetition"
	case nchess.FivefoldRepetition:
		return "fivefold_repetition"
	case nchess.FiftyMoveRule:
		return "fifty_move_rule"
	case nchess.SeventyFiveMoveRule:
		return "seventy_five_move_rule"
	case nchess.InsufficientMaterial:
		return "insufficient_material"
	default:
		return "unknown"
	}
}
