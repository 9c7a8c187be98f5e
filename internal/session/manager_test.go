package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/lanepark/chesshall/internal/domain"
	"github.com/lanepark/chesshall/internal/oracle"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	url := fmt.Sprintf("redis://%s/0", mr.Addr())
	store, err := NewRedisStore(url, 0)
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	return NewManager(store, oracle.New())
}

func mustCreate(t *testing.T, m *Manager, userID, userName, seat string) *domain.Session {
	t.Helper()
	rec, _, err := m.Create(context.Background(), userID, userName, seat)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return rec
}

func TestCreateBindsChosenSeat(t *testing.T) {
	m := newTestManager(t)
	rec, seat, err := m.Create(context.Background(), "u1", "alice", "black")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if seat != domain.SeatBlack {
		t.Fatalf("seat = %s, want black", seat)
	}
	if rec.BlackName != "alice" || rec.WhiteName != domain.WaitingName {
		t.Fatalf("names = %q/%q", rec.WhiteName, rec.BlackName)
	}
	if rec.Status != domain.StatusWaiting {
		t.Fatalf("status = %s, want Waiting", rec.Status)
	}
	if rec.FEN != oracle.InitialFEN {
		t.Fatalf("FEN = %q", rec.FEN)
	}
	if len(rec.JoinCode) != 5 || rec.JoinCode != strings.ToLower(rec.JoinCode) {
		t.Fatalf("join code %q is not 5 lowercase chars", rec.JoinCode)
	}
}

func TestCreateRejectsBadSeat(t *testing.T) {
	m := newTestManager(t)
	if _, _, err := m.Create(context.Background(), "u1", "alice", "purple"); !errors.Is(err, ErrInvalidSeatChoice) {
		t.Fatalf("want ErrInvalidSeatChoice, got %v", err)
	}
}

func TestJoinFillsSeatAndActivates(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec := mustCreate(t, m, "u1", "alice", "white")

	joined, seat, changed, err := m.Join(ctx, rec.JoinCode, "u2", "bob")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if !changed || seat != domain.SeatBlack {
		t.Fatalf("changed=%v seat=%s", changed, seat)
	}
	if joined.Status != domain.StatusActive {
		t.Fatalf("status = %s, want Active", joined.Status)
	}
	if joined.BlackName != "bob" {
		t.Fatalf("black name = %q", joined.BlackName)
	}
}

func TestJoinIsIdempotentForSeatedPlayer(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec := mustCreate(t, m, "u1", "alice", "white")

	again, seat, changed, err := m.Join(ctx, rec.JoinCode, "u1", "alice")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if changed {
		t.Fatal("re-join must not report a change")
	}
	if seat != domain.SeatWhite {
		t.Fatalf("seat = %s, want white", seat)
	}
	if again.Version != rec.Version {
		t.Fatalf("re-join bumped version %d -> %d", rec.Version, again.Version)
	}
}

func TestJoinUppercaseCodeIsNormalized(t *testing.T) {
	m := newTestManager(t)
	rec := mustCreate(t, m, "u1", "alice", "white")
	if _, _, _, err := m.Join(context.Background(), strings.ToUpper(rec.JoinCode), "u2", "bob"); err != nil {
		t.Fatalf("Join with uppercase code: %v", err)
	}
}

func TestJoinThirdIdentityIsRejected(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec := mustCreate(t, m, "u1", "alice", "white")
	if _, _, _, err := m.Join(ctx, rec.JoinCode, "u2", "bob"); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if _, _, _, err := m.Join(ctx, rec.JoinCode, "u3", "carol"); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("want ErrSessionFull, got %v", err)
	}
}

func TestJoinUnknownCode(t *testing.T) {
	m := newTestManager(t)
	if _, _, _, err := m.Join(context.Background(), "nope1", "u2", "bob"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func startGame(t *testing.T, m *Manager) (*domain.Session, string, string) {
	t.Helper()
	ctx := context.Background()
	rec := mustCreate(t, m, "u1", "alice", "white")
	joined, _, _, err := m.Join(ctx, rec.JoinCode, "u2", "bob")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	return joined, "u1", "u2"
}

func TestMoveTurnEnforcement(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec, white, black := startGame(t, m)

	if _, err := m.Move(ctx, rec.JoinCode, black, "e7", "e5", ""); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("want ErrNotYourTurn, got %v", err)
	}
	if _, err := m.Move(ctx, rec.JoinCode, "u3", "e2", "e4", ""); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("want ErrNotAPlayer, got %v", err)
	}

	after, err := m.Move(ctx, rec.JoinCode, white, "e2", "e4", "")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if len(after.Moves) != 1 || after.Moves[0].SAN != "e4" {
		t.Fatalf("move log %+v", after.Moves)
	}
	if after.PGN != "1. e4" {
		t.Fatalf("pgn = %q", after.PGN)
	}

	if _, err := m.Move(ctx, rec.JoinCode, black, "e7", "e5", ""); err != nil {
		t.Fatalf("black reply: %v", err)
	}
}

func TestMoveIllegalLeavesStateUntouched(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec, white, _ := startGame(t, m)

	if _, err := m.Move(ctx, rec.JoinCode, white, "e2", "e5", ""); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("want ErrIllegalMove, got %v", err)
	}
	cur, err := m.Get(ctx, rec.JoinCode)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(cur.Moves) != 0 || cur.FEN != oracle.InitialFEN {
		t.Fatalf("rejected move mutated state: %+v", cur)
	}
}

func TestCheckmateSetsDecisiveResult(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec, white, black := startGame(t, m)

	// fool's mate: black delivers checkmate
	script := []struct {
		user     string
		from, to string
	}{
		{white, "f2", "f3"},
		{black, "e7", "e5"},
		{white, "g2", "g4"},
		{black, "d8", "h4"},
	}
	var last *domain.Session
	var err error
	for _, s := range script {
		last, err = m.Move(ctx, rec.JoinCode, s.user, s.from, s.to, "")
		if err != nil {
			t.Fatalf("Move %s%s: %v", s.from, s.to, err)
		}
	}
	if last.Status != domain.StatusCheckmate {
		t.Fatalf("status = %s, want Checkmate", last.Status)
	}
	if last.Result != domain.ResultBlackWins {
		t.Fatalf("result = %s, want 0-1", last.Result)
	}
	if last.TerminationMethod != "checkmate" {
		t.Fatalf("method = %q", last.TerminationMethod)
	}

	// terminal state never transitions again
	if _, err := m.Move(ctx, rec.JoinCode, white, "a2", "a3", ""); !errors.Is(err, ErrGameNotActive) {
		t.Fatalf("move after mate: want ErrGameNotActive, got %v", err)
	}
	if _, err := m.Resign(ctx, rec.JoinCode, white); !errors.Is(err, ErrGameFinished) {
		t.Fatalf("resign after mate: want ErrGameFinished, got %v", err)
	}
}

func TestResign(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec, _, black := startGame(t, m)

	after, err := m.Resign(ctx, rec.JoinCode, black)
	if err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if after.Status != domain.StatusResigned {
		t.Fatalf("status = %s", after.Status)
	}
	if after.Result != domain.ResultWhiteWins {
		t.Fatalf("result = %s, want 1-0", after.Result)
	}
	if after.TerminationMethod != "resignation" {
		t.Fatalf("method = %q", after.TerminationMethod)
	}
}

func TestResignByNonPlayer(t *testing.T) {
	m := newTestManager(t)
	rec, _, _ := startGame(t, m)
	if _, err := m.Resign(context.Background(), rec.JoinCode, "u9"); !errors.Is(err, ErrNotAPlayer) {
		t.Fatalf("want ErrNotAPlayer, got %v", err)
	}
}

func TestDrawOfferLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec, white, black := startGame(t, m)

	if _, err := m.AnswerDraw(ctx, rec.JoinCode, black, true); !errors.Is(err, ErrNoDrawOffer) {
		t.Fatalf("answer without offer: want ErrNoDrawOffer, got %v", err)
	}

	offered, err := m.OfferDraw(ctx, rec.JoinCode, white)
	if err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}
	if offered.DrawOfferedBy != domain.SeatWhite {
		t.Fatalf("offered by = %s", offered.DrawOfferedBy)
	}

	if _, err := m.AnswerDraw(ctx, rec.JoinCode, white, true); !errors.Is(err, ErrOwnDrawOffer) {
		t.Fatalf("accepting own offer: want ErrOwnDrawOffer, got %v", err)
	}

	declined, err := m.AnswerDraw(ctx, rec.JoinCode, black, false)
	if err != nil {
		t.Fatalf("decline: %v", err)
	}
	if declined.DrawOfferedBy != domain.SeatNone || declined.Status != domain.StatusActive {
		t.Fatalf("decline state: %+v", declined)
	}

	if _, err := m.OfferDraw(ctx, rec.JoinCode, black); err != nil {
		t.Fatalf("re-offer: %v", err)
	}
	accepted, err := m.AnswerDraw(ctx, rec.JoinCode, white, true)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != domain.StatusDraw || accepted.Result != domain.ResultDraw {
		t.Fatalf("accept state: status=%s result=%s", accepted.Status, accepted.Result)
	}
	if accepted.TerminationMethod != "agreement" {
		t.Fatalf("method = %q", accepted.TerminationMethod)
	}
}

func TestMoveClearsPendingDrawOffer(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec, white, _ := startGame(t, m)

	if _, err := m.OfferDraw(ctx, rec.JoinCode, white); err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}
	after, err := m.Move(ctx, rec.JoinCode, white, "e2", "e4", "")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if after.DrawOfferedBy != domain.SeatNone {
		t.Fatalf("move did not clear the offer: %s", after.DrawOfferedBy)
	}
}

func TestFinishHookFiresOnce(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	rec, _, black := startGame(t, m)

	var mu sync.Mutex
	var finished []*domain.Session
	done := make(chan struct{}, 1)
	m.OnFinish(func(r *domain.Session) {
		mu.Lock()
		finished = append(finished, r)
		mu.Unlock()
		done <- struct{}{}
	})

	if _, err := m.Resign(ctx, rec.JoinCode, black); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("finish hook did not fire")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(finished) != 1 {
		t.Fatalf("hook fired %d times", len(finished))
	}
	if finished[0].Status != domain.StatusResigned {
		t.Fatalf("hook saw status %s", finished[0].Status)
	}
}

func TestConcurrentMovesOneWins(t *testing.T) {
	m := NewManager(NewMemoryStore(), oracle.New())
	ctx := context.Background()
	rec, white, _ := startGame(t, m)

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = m.Move(ctx, rec.JoinCode, white, "e2", "e4", "")
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !errors.Is(err, ErrNotYourTurn) && !errors.Is(err, ErrConflict) {
			t.Fatalf("unexpected racer error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("%d racers won, want exactly 1", wins)
	}
	cur, err := m.Get(ctx, rec.JoinCode)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(cur.Moves) != 1 {
		t.Fatalf("move log length %d, want 1", len(cur.Moves))
	}
}

// stubOracle accepts everything and never ends the game. Verifies the
// manager depends only on the Oracle contract.
type stubOracle struct{}

func (stubOracle) Apply(moves []domain.Move, from, to, promotion string) (*oracle.Outcome, error) {
	return &oracle.Outcome{
		Move: domain.Move{SAN: from + to, From: from, To: to},
		FEN:  flipSide(len(moves)),
	}, nil
}

func (stubOracle) Replay(moves []domain.Move) (string, error) {
	return flipSide(len(moves)), nil
}

func flipSide(applied int) string {
	side := "w"
	if applied%2 == 0 {
		side = "b"
	}
	return "8/8/8/8/8/8/8/8 " + side + " - - 0 1"
}

func TestManagerWithStubOracle(t *testing.T) {
	m := NewManager(NewMemoryStore(), stubOracle{})
	ctx := context.Background()
	rec, white, black := startGame(t, m)

	if _, err := m.Move(ctx, rec.JoinCode, white, "a1", "h8", ""); err != nil {
		t.Fatalf("stub move: %v", err)
	}
	after, err := m.Move(ctx, rec.JoinCode, black, "h8", "a1", "")
	if err != nil {
		t.Fatalf("stub reply: %v", err)
	}
	if len(after.Moves) != 2 {
		t.Fatalf("move log %+v", after.Moves)
	}
}
