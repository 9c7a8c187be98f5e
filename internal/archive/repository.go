// Package archive persists finished games to Postgres.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"github.com/lanepark/chesshall/internal/domain"
)

// Repository writes terminal sessions into the archived_games table.
// A nil Repository is a no-op so callers can skip the nil checks when
// archival is not configured.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// SaveFinished upserts a finished session. Re-delivery of the same
// join code overwrites the previous row, so the hook can fire more
// than once without duplicating games.
func (r *Repository) SaveFinished(ctx context.Context, rec *domain.Session) error {
	if r == nil || r.db == nil || rec == nil {
		return nil
	}
	if !rec.Status.Terminal() {
		return fmt.Errorf("session %s is not finished", rec.JoinCode)
	}

	pgnResult := strings.TrimSpace(string(rec.Result))
	if pgnResult == "" {
		pgnResult = "*"
	}
	pgn := buildPGN(rec, pgnResult)

	q := `INSERT INTO archived_games (
	    join_code, white_name, black_name,
	    result, method, move_count, final_fen, pgn, finished_at
	  ) VALUES (
	    $1,$2,$3,$4,$5,$6,$7,$8,$9
	  ) ON CONFLICT (join_code) DO UPDATE SET
	    white_name=EXCLUDED.white_name,
	    black_name=EXCLUDED.black_name,
	    result=EXCLUDED.result,
	    method=EXCLUDED.method,
	    move_count=EXCLUDED.move_count,
	    final_fen=EXCLUDED.final_fen,
	    pgn=EXCLUDED.pgn,
	    finished_at=EXCLUDED.finished_at`

	_, err := r.db.ExecContext(ctx, q,
		rec.JoinCode,
		rec.WhiteName, rec.BlackName,
		pgnResult, strings.TrimSpace(rec.TerminationMethod),
		len(rec.Moves), rec.FEN, pgn,
		rec.UpdatedAt,
	)
	return err
}

func buildPGN(rec *domain.Session, pgnResult string) string {
	var b strings.Builder
	date := rec.UpdatedAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString("[Event \"Chesshall\"]\n")
	b.WriteString("[Site \"chesshall\"]\n")
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePGN(rec.WhiteName)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePGN(rec.BlackName)))
	if strings.TrimSpace(rec.TerminationMethod) != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(rec.TerminationMethod))))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", pgnResult))

	movetext := domain.Movetext(rec.Moves)
	if movetext != "" {
		b.WriteString(movetext)
		b.WriteString(" ")
	}
	b.WriteString(pgnResult)
	return b.String()
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
